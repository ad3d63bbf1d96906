package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/realtime"
)

// ProjectChangeHandler receives one project change. An error or panic is logged and
// does not stop later events.
type ProjectChangeHandler func(event models.ChangeEvent, project models.Project) error

// SubscribeToProjectChanges delivers insert, update and delete events for the
// signed-in user's projects until the returned disposer is called or ctx is done.
// The disposer is safe to call more than once.
func (c *Client) SubscribeToProjectChanges(ctx context.Context, handler ProjectChangeHandler) (func() error, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}
	if h.backend.Realtime == nil {
		return nil, fmt.Errorf("realtime is not available")
	}

	sub, err := h.backend.Realtime.Subscribe(ctx, realtime.ProjectsChannel)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to project changes: %w", err)
	}

	done := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				_ = sub.Close()
				return
			case n, ok := <-sub.C():
				if !ok {
					return
				}
				c.deliverProjectChange(uid, n, handler)
			}
		}
	}()

	var once sync.Once
	var closeErr error
	dispose := func() error {
		once.Do(func() {
			close(stop)
			closeErr = sub.Close()
			<-done
		})
		return closeErr
	}
	return dispose, nil
}

func (c *Client) deliverProjectChange(ownerID string, n realtime.Notification, handler ProjectChangeHandler) {
	change, err := realtime.DecodeChange(n)
	if err != nil {
		c.log.Warn("dropping malformed project change", zap.Error(err))
		return
	}

	raw := change.Record
	if models.ChangeEvent(change.Type) == models.ChangeDelete || len(raw) == 0 || string(raw) == "null" {
		raw = change.OldRecord
	}
	var project models.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		c.log.Warn("dropping undecodable project change",
			zap.String("type", change.Type),
			zap.Error(err),
		)
		return
	}
	if project.UserID != ownerID {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("project change handler panicked",
				zap.String("project_id", project.ID),
				zap.Any("panic", r),
			)
		}
	}()
	if err := handler(models.ChangeEvent(change.Type), project); err != nil {
		c.log.Error("project change handler failed",
			zap.String("project_id", project.ID),
			zap.String("type", change.Type),
			zap.Error(err),
		)
	}
}
