package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tropicaldog17/folio/internal/app"
	"github.com/tropicaldog17/folio/internal/config"
	"github.com/tropicaldog17/folio/internal/logger"
)

// signInFlags lets store commands act as a user instead of reading public rows.
type signInFlags struct {
	email    string
	password string
}

func (s *signInFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.email, "email", os.Getenv("FOLIO_EMAIL"), "Sign in with this email before running (defaults to $FOLIO_EMAIL)")
	f.StringVar(&s.password, "password", os.Getenv("FOLIO_PASSWORD"), "Password for -email (defaults to $FOLIO_PASSWORD)")
}

// openApp loads configuration and wires the application, signing in when
// credentials were given.
func openApp(ctx context.Context, creds *signInFlags) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.ForEnv(os.Getenv("LOG_ENV"))
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if creds != nil && creds.email != "" {
		if _, err := a.Store.SignIn(ctx, creds.email, creds.password); err != nil {
			a.Close()
			return nil, fmt.Errorf("sign in: %w", err)
		}
	}
	return a, nil
}
