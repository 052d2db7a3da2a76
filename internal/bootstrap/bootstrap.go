// Package bootstrap builds the card service from configuration for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/commander-rater/internal/cardsync"
	"github.com/ramonehamilton/commander-rater/internal/config"
	"github.com/ramonehamilton/commander-rater/internal/metrics"
	"github.com/ramonehamilton/commander-rater/internal/scryfall"
	"github.com/ramonehamilton/commander-rater/internal/storage"
	"github.com/ramonehamilton/commander-rater/internal/storage/postgres"
	"github.com/ramonehamilton/commander-rater/internal/storage/repository"
)

// LoadConfig reads the TOML file at path, or the default location when path
// is empty, and applies environment overrides. The result is not validated.
func LoadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Store is an opened card store of either driver.
type Store struct {
	Repo        repository.CardRepository
	Provisioner cardsync.Provisioner
	close       func() error
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the store selected by cfg.Database. The schema is not
// provisioned here; InitializeDatabase does that on demand.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := storage.Open(storage.DefaultConfig(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("driver", cfg.Driver).Str("path", cfg.Path).Msg("Card store opened")
		return &Store{
			Repo:        repository.NewCardRepository(db.Conn()),
			Provisioner: db,
			close:       db.Close,
		}, nil

	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.DSN, 0)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info().Str("driver", cfg.Driver).Msg("Card store opened")
		return &Store{
			Repo:        postgres.NewCardRepository(pg.Pool()),
			Provisioner: pg,
			close:       pg.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewScryfallClient builds a Scryfall client from cfg. m may be nil.
func NewScryfallClient(cfg config.ScryfallConfig, m *metrics.SyncMetrics) (*scryfall.Client, error) {
	c := config.Config{Scryfall: cfg}

	delay, err := c.GetPageDelay()
	if err != nil {
		return nil, fmt.Errorf("page delay: %w", err)
	}
	timeout, err := c.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	return scryfall.NewClient(
		scryfall.WithBaseURL(cfg.BaseURL),
		scryfall.WithUserAgent(cfg.UserAgent),
		scryfall.WithPageDelay(delay),
		scryfall.WithHTTPClient(&http.Client{Timeout: timeout}),
		scryfall.WithMetrics(m),
	), nil
}

// NewService wires a card service over store using cfg's Scryfall settings.
func NewService(cfg *config.Config, store *Store, m *metrics.SyncMetrics) (*cardsync.Service, error) {
	client, err := NewScryfallClient(cfg.Scryfall, m)
	if err != nil {
		return nil, err
	}

	return cardsync.NewService(client, store.Repo, store.Provisioner,
		cardsync.WithQuery(cfg.Scryfall.Query, cfg.Scryfall.Order),
		cardsync.WithServiceMetrics(m),
	), nil
}
