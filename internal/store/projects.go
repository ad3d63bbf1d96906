package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/realtime"
)

// ListProjects returns the signed-in user's projects, newest first. Signed out, it
// returns an empty list so callers can render an empty state.
func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if errors.Is(err, apperrors.ErrAuthenticationRequired) {
		return []*models.Project{}, nil
	}
	if err != nil {
		return nil, err
	}
	return h.projects.ListByOwner(ctx, uid)
}

// CreateProject stamps the signed-in user as owner and inserts the project.
// The URL is expected to be validated by the caller.
func (c *Client) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	p.Normalize()
	p.ID = c.newID()
	p.UserID = uid
	p.CreatedAt = &now
	created, err := h.projects.Create(ctx, &p)
	if err != nil {
		return nil, err
	}
	c.publishProjectChange(h, models.ChangeInsert, created, nil)
	return created, nil
}

// UpdateProject applies patch to a project owned by the signed-in user.
func (c *Client) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := h.projects.Update(ctx, id, uid, patch.Updates())
	if err != nil {
		return nil, err
	}
	c.publishProjectChange(h, models.ChangeUpdate, updated, nil)
	return updated, nil
}

// DeleteProject removes a project owned by the signed-in user.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	h, err := c.getHandle()
	if err != nil {
		return err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return err
	}
	if err := h.projects.Delete(ctx, id, uid); err != nil {
		return err
	}
	c.publishProjectChange(h, models.ChangeDelete, nil, &models.Project{ID: id, UserID: uid})
	return nil
}

func (c *Client) publishProjectChange(h *Handle, event models.ChangeEvent, record, oldRecord *models.Project) {
	if h.backend.Publisher == nil {
		return
	}
	payload, err := realtime.EncodeChange(string(event), record, oldRecord)
	if err != nil {
		c.log.Warn("failed to encode project change", zap.Error(err))
		return
	}
	h.backend.Publisher.Publish(realtime.ProjectsChannel, payload)
}
