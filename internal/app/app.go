package app

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/catalog"
	"github.com/five82/bookshelf/internal/config"
	"github.com/five82/bookshelf/internal/prefs"
	"github.com/five82/bookshelf/internal/ui"
)

// Options configure the bookshelf application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/bookshelf/prefs.toml
	Route      string // first screen, e.g. "/books/create"; empty opens the list
	PageSize   int    // overrides the configured page size when positive
}

// Run boots the bookshelf TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logFile, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Printf("app: starting, catalog %s", cfg.APIURL)

	store := prefs.NewStore(opts.PrefsPath)
	userPrefs := store.Load()

	client, err := catalog.NewClient(cfg.APIURL, catalog.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("init catalog client: %w", err)
	}

	connErr := checkCatalog(ctx, client)
	health := StartHealthPoller(ctx, client, defaultPollInterval, connErr)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Service:   client,
		Config:    cfg,
		Prefs:     store,
		ThemeName: userPrefs.Theme,
		Route:     opts.Route,
		ConnErr:   connErr,
		Health:    health,
	})
	if err != nil && ctx.Err() != nil {
		log.Printf("app: stopped: %v", ctx.Err())
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Printf("app: exited")
	return nil
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("page size: %w", err)
		}
	}
	return cfg, nil
}

// openLog sends the standard logger to the configured log file. The
// terminal belongs to the UI while it runs.
func openLog(cfg config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.LogDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(cfg.LogFile, "")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// checkCatalog verifies the catalog is reachable before the UI starts. A
// failure is logged and shown in the UI rather than aborting startup.
func checkCatalog(ctx context.Context, client pinger) error {
	if err := ping(ctx, client); err != nil {
		log.Printf("app: catalog not reachable: %v", err)
		return err
	}
	return nil
}
