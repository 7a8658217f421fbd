package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nhle/vulcania/internal/alert"
	"github.com/nhle/vulcania/internal/app"
	"github.com/nhle/vulcania/internal/credential"
	"github.com/nhle/vulcania/internal/feed"
	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "vulcania:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("vulcania", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", model.DefaultConfigPath(), "path to the configuration file")
	driver := flags.String("driver", "", "backend driver: sqlite or postgres")
	dsn := flags.String("dsn", "", "Postgres connection string")
	saveDSN := flags.Bool("save-dsn", false, "store --dsn in the system keyring and exit")
	phoneNumber := flags.String("phone", "", "log in with this phone number")
	seed := flags.Bool("seed", true, "load demo residents and meeting points into an empty sqlite database")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *saveDSN {
		if *dsn == "" {
			return errors.New("--save-dsn needs --dsn")
		}
		if err := credential.Set(credential.DSNKey, *dsn); err != nil {
			return fmt.Errorf("saving DSN: %w", err)
		}
		fmt.Println("DSN saved to the system keyring")
		return nil
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *driver != "" {
		cfg.Backend.Driver = *driver
	}
	if *dsn != "" {
		cfg.Backend.DSN = *dsn
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, listener, err := openBackend(ctx, cfg, *seed, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	// Muting is applied by the scheduler, so the bell is always wired.
	cues := alert.NewCueNotifier()
	notifiers := alert.MultiNotifier{alert.NewBellNotifier(os.Stderr), cues}
	warning, emergency, leadIn := cfg.Alert.CueIntervals()
	scheduler := alert.NewScheduler(
		alert.NewLoggingNotifier(notifiers, logger),
		alert.WithIntervals(warning, emergency),
		alert.WithLeadIn(leadIn),
		alert.WithSchedulerLogger(logger),
	)

	opts := app.Options{
		Store:      s,
		Config:     cfg,
		ConfigPath: *configPath,
		Scheduler:  scheduler,
		Cues:       cues,
		Phone:      *phoneNumber,
		Logger:     logger,
	}
	if listener != nil {
		defer listener.Close()
		go listener.Run(ctx)
		opts.Feed = listener
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}

// openBackend opens the configured store. The Postgres backend also gets
// a change feed listener; when the feed cannot be set up the shell falls
// back to polling.
func openBackend(
	ctx context.Context,
	cfg *model.AppConfig,
	seed bool,
	log *logrus.Logger,
) (store.Store, *feed.Listener, error) {
	switch cfg.Backend.Driver {
	case model.DriverPostgres:
		dsn, err := credential.ResolveDSN(cfg.Backend)
		if err != nil {
			return nil, nil, err
		}
		s, err := store.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		listener, err := feed.NewListener(dsn, feed.WithLogger(log))
		if err != nil {
			log.WithError(err).Warn("change feed unavailable, polling for messages")
			return s, nil, nil
		}
		return s, listener, nil

	default:
		if dir := filepath.Dir(cfg.Backend.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating data directory %s: %w", dir, err)
			}
		}
		s, err := store.NewSQLiteStore(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if seed {
			if err := store.Seed(ctx, s); err != nil {
				s.Close()
				return nil, nil, err
			}
		}
		return s, nil, nil
	}
}
