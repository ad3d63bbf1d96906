package store

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/auth"
	"github.com/tropicaldog17/folio/internal/db"
	"github.com/tropicaldog17/folio/internal/realtime"
)

// NewDialer connects rows to databaseURL and auth to the store url. SQLite
// databases get an in-process realtime hub instead of LISTEN/NOTIFY.
func NewDialer(databaseURL string, httpClient *http.Client, log *zap.Logger) Dialer {
	return func(ctx context.Context, url, key string) (*Backend, error) {
		database, err := db.Connect(db.NewConfig(databaseURL))
		if err != nil {
			return nil, err
		}

		backend := &Backend{
			DB:   database,
			Auth: auth.NewClient(url, key, httpClient, log),
		}
		if database.IsSQLite() {
			if err := db.AutoMigrate(database); err != nil {
				database.Close()
				return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
			}
			hub := realtime.NewMemorySource()
			backend.Realtime = hub
			backend.Publisher = hub
		} else {
			backend.Realtime = realtime.NewPQSource(databaseURL, log)
		}
		return backend, nil
	}
}
