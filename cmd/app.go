package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/bookmeta/internal/config"
	"github.com/lehigh-university-libraries/bookmeta/internal/dispatch"
	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
	"github.com/lehigh-university-libraries/bookmeta/internal/settings"
	"github.com/lehigh-university-libraries/bookmeta/internal/sources"
	"github.com/lehigh-university-libraries/bookmeta/internal/storage"
)

// app is everything a command needs, built from the environment
type app struct {
	cfg      config.Config
	settings *settings.Store
	service  *enrich.Service
	close    func() error
}

// newApp wires config, settings, sources and the book store. With memory set the
// book store lives only for the process.
func newApp(memory bool) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	store, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	reg := providers.NewRegistry()
	if err := sources.RegisterDefaults(reg, cfg); err != nil {
		return nil, err
	}

	var books storage.BookStore
	closeFn := func() error { return nil }
	if memory {
		books = storage.NewMemory()
	} else {
		db, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		books = db
		closeFn = db.Close
	}

	return &app{
		cfg:      cfg,
		settings: store,
		service: &enrich.Service{
			Registry:     reg,
			Settings:     store,
			Books:        books,
			Dispatcher:   dispatch.New(cfg.SourceTimeout, cfg.BatchTimeout),
			GenericCover: cfg.GenericCover,
		},
		close: closeFn,
	}, nil
}

// withApp runs fn against a freshly wired app and closes it afterwards
func withApp(memory bool, fn func(a *app) error) error {
	a, err := newApp(memory)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
