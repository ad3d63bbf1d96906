package models

import (
	"net/url"
	"strings"
	"time"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
)

// Project is a bookmarked project URL owned by one user.
type Project struct {
	ID        string     `json:"id" gorm:"primaryKey;type:text"`
	UserID    string     `json:"user_id" gorm:"column:user_id;index"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	CreatedAt *time.Time `json:"created_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.URL = strings.TrimSpace(p.URL)
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &apperrors.ErrValidation{Field: "title", Message: "is required"}
	}
	return ValidateProjectURL(p.URL)
}

// ValidateProjectURL accepts only absolute http(s) URLs with a host.
func ValidateProjectURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return &apperrors.ErrValidation{Field: "url", Message: "must start with http:// or https://"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &apperrors.ErrValidation{Field: "url", Message: "must be an absolute URL"}
	}
	return nil
}

// ProjectPatch carries the fields of a project update; nil fields are left unchanged.
type ProjectPatch struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

func (p ProjectPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &apperrors.ErrValidation{Field: "title", Message: "must not be empty"}
	}
	if p.URL != nil {
		return ValidateProjectURL(*p.URL)
	}
	return nil
}

func (p ProjectPatch) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Title != nil {
		updates["title"] = strings.TrimSpace(*p.Title)
	}
	if p.URL != nil {
		updates["url"] = strings.TrimSpace(*p.URL)
	}
	return updates
}

// ChangeEvent names a realtime row change.
type ChangeEvent string

const (
	ChangeInsert ChangeEvent = "INSERT"
	ChangeUpdate ChangeEvent = "UPDATE"
	ChangeDelete ChangeEvent = "DELETE"
)

// DomainCount is one row of the project domain histogram.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// ProjectStats summarises the signed-in user's projects. Degraded is set when the
// numbers are zero because loading failed rather than because there is no data.
type ProjectStats struct {
	TotalCount      int           `json:"total_count"`
	DomainFrequency []DomainCount `json:"domain_frequency"`
	MostRecent      *Project      `json:"most_recent"`
	Degraded        bool          `json:"degraded"`
	Reason          string        `json:"reason,omitempty"`
	LoadedAt        time.Time     `json:"loaded_at"`
}
