package crm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/BeneficiaryImport/internal/config"
	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
)

// Backend is the store selected by configuration. History is nil when the
// backend cannot keep import history.
type Backend struct {
	Name    string
	Store   core.Store
	History core.HistoryStore

	close func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open builds the backend named by cfg.CRM.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch name := strings.ToLower(cfg.CRM.Backend); name {
	case config.BackendMemory, "":
		store := NewMemoryStore()
		logger.Warn("using in-memory CRM store; records are lost on exit")
		return &Backend{Name: config.BackendMemory, Store: store, History: store}, nil

	case config.BackendHTTP:
		store, err := NewHTTPStore(HTTPConfig{
			BaseURL: cfg.CRM.BaseURL,
			Token:   cfg.CRM.Token,
			Timeout: cfg.CRM.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using CRM REST API", "base_url", cfg.CRM.BaseURL)
		return &Backend{Name: name, Store: store}, nil

	case config.BackendPostgres:
		store, err := NewPostgresStore(ctx, PostgresConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres CRM store", "max_conns", cfg.Database.MaxConns)
		return &Backend{Name: name, Store: store, History: store, close: store.Close}, nil

	default:
		return nil, fmt.Errorf("crm: unknown backend %q", cfg.CRM.Backend)
	}
}

// DealSettings returns the deal values configured for cfg.
func DealSettings(cfg *config.Config) core.DealSettings {
	return core.DealSettings{
		LayoutID:    cfg.CRM.DealLayoutID,
		ProgramType: cfg.CRM.DealProgramType,
		Stage:       cfg.CRM.DealStage,
	}
}
