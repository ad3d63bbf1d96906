package services

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
)

type projectStatsService struct {
	projects ProjectLister
	log      *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	stats  models.ProjectStats
	loaded bool
}

func NewProjectStatsService(projects ProjectLister, log *zap.Logger) ProjectStatsService {
	return &projectStatsService{
		projects: projects,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Load recomputes the statistics. A failed listing yields zero values marked Degraded.
func (s *projectStatsService) Load(ctx context.Context) models.ProjectStats {
	stats := models.ProjectStats{DomainFrequency: []models.DomainCount{}, LoadedAt: s.now().UTC()}

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		s.log.Error("failed to load projects for stats", zap.Error(err))
		stats.Degraded = true
		stats.Reason = "projects unavailable: " + err.Error()
	} else {
		stats.TotalCount = len(projects)
		stats.DomainFrequency = DomainFrequency(projects)
		stats.MostRecent = MostRecentProject(projects)
	}

	s.mu.Lock()
	s.stats = stats
	s.loaded = true
	s.mu.Unlock()
	return stats
}

func (s *projectStatsService) Refresh(ctx context.Context) models.ProjectStats {
	return s.Load(ctx)
}

func (s *projectStatsService) Snapshot() (models.ProjectStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.loaded
}

// DomainFrequency counts projects per host, lower-cased and without a leading
// "www.". URLs without a parsable host are skipped. Sorted by count descending,
// then by domain.
func DomainFrequency(projects []*models.Project) []models.DomainCount {
	counts := make(map[string]int)
	for _, p := range projects {
		if host := projectDomain(p.URL); host != "" {
			counts[host]++
		}
	}

	out := make([]models.DomainCount, 0, len(counts))
	for domain, n := range counts {
		out = append(out, models.DomainCount{Domain: domain, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// MostRecentProject returns the project with the latest creation time. Projects
// without a timestamp are ignored.
func MostRecentProject(projects []*models.Project) *models.Project {
	var latest *models.Project
	for _, p := range projects {
		if p.CreatedAt == nil {
			continue
		}
		if latest == nil || p.CreatedAt.After(*latest.CreatedAt) {
			latest = p
		}
	}
	return latest
}

func projectDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
