package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cashbook-dev/cashbook/internal/auditlog"
	"github.com/cashbook-dev/cashbook/internal/config"
	"github.com/cashbook-dev/cashbook/internal/events"
	"github.com/cashbook-dev/cashbook/internal/events/amqp"
	"github.com/cashbook-dev/cashbook/internal/events/kafka"
	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/logger"
	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
	"github.com/cashbook-dev/cashbook/internal/store/memory"
	"github.com/cashbook-dev/cashbook/internal/store/sqlite"
)

// app is everything a subcommand needs, opened from cashbook.yaml.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  store.Store
	engine *ledger.Engine
	access model.Access
}

// loadConfig reads the config file, applies .env and CASHBOOK_* overrides,
// and resolves paths relative to the config file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no %s found at %s: run `cashbook init` first", config.FileName, path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.ResolvePaths(filepath.Dir(abs))
	return cfg, nil
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	var pubs events.Multi
	for _, d := range cfg.Drivers() {
		switch d {
		case config.EventsAMQP:
			p, err := amqp.Dial(cfg.URL, cfg.Exchange, cfg.Queue)
			if err != nil {
				pubs.Close()
				return nil, err
			}
			pubs = append(pubs, p)
		case config.EventsKafka:
			pubs = append(pubs, kafka.NewPublisher(cfg.Brokers, cfg.Topic))
		}
	}
	switch len(pubs) {
	case 0:
		return events.Nop{}, nil
	case 1:
		return pubs[0], nil
	default:
		return pubs, nil
	}
}

func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}

	access, err := model.ParseAccess(flags.access)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	pub, err := openPublisher(cfg.Events)
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []ledger.Option{
		ledger.WithLogger(log),
		ledger.WithPublisher(pub),
		ledger.WithRestoreOnReverse(cfg.Ledger.RestoreBalanceOnReverse),
		ledger.WithMaxRetries(cfg.Ledger.MaxRetries),
	}
	if cfg.Audit.Enabled {
		opts = append(opts, ledger.WithAuditor(auditlog.New(cfg.Audit.Path)))
	}

	return &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		engine: ledger.New(st, opts...),
		access: access,
	}, nil
}

func (a *app) Close() error {
	pubErr := a.engine.Close()
	if err := a.store.Close(); err != nil {
		return err
	}
	return pubErr
}

// runWithApp opens the app for the duration of fn.
func runWithApp(flags *globalFlags, fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, flags)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := ledger.WithActor(cmd.Context(), flags.actor)
		ctx = logger.WithContext(ctx, a.log)
		return fn(ctx, a, cmd, args)
	}
}
