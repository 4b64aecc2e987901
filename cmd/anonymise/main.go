// Command anonymise assembles the release bundle for one approved genomic
// data-access request: it classifies the request against the disclosure
// policy, selects the in-scope samples, and writes re-identifiable links
// or anonymised copies plus the metadata extract and checksums.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/assembler"
	"github.com/anonymise-pipeline/internal/checksum"
	"github.com/anonymise-pipeline/internal/config"
	"github.com/anonymise-pipeline/internal/domain"
	"github.com/anonymise-pipeline/internal/ledger"
	"github.com/anonymise-pipeline/internal/locator"
	"github.com/anonymise-pipeline/internal/metadata"
	"github.com/anonymise-pipeline/internal/policy"
)

func main() {
	appPath := flag.String("app", "", "path to the application request document (JSON)")
	flag.Parse()

	configManager, err := config.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := configManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}
	cfg := configManager.GetConfig()
	log := config.NewLogger(cfg.Logging)

	if *appPath == "" {
		log.Error("No application file given; use -app <request.json>")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Shutdown signal received, aborting run")
		cancel()
	}()

	if err := run(ctx, cfg, log, *appPath); err != nil {
		log.WithError(err).Error("Run failed")
		os.Exit(domain.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, appPath string) error {
	app, err := domain.LoadApplication(appPath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"application":     app.String(),
		"identifiability": app.Identifiability,
		"cohorts":         app.Cohorts(),
		"file_types":      app.RequestedFileTypes(),
	}).Info("Application loaded")

	allowed, err := policy.Classify(app)
	if err != nil {
		return err
	}

	index, err := metadata.Load(log, cfg.DataDir, app.Cohorts())
	if err != nil {
		return err
	}
	index.FilterConsent(cfg.DataDir, allowed)

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	a := assembler.New(log, cfg.OutputDir,
		locator.New(log, cfg.DataDir),
		ledger.NewAllocator(store, log),
		checksum.NewCommand(log, cfg.Checksum.Command))
	return a.Run(ctx, app, index)
}

// openStore opens the configured used-id ledger store. The postgres driver
// runs schema migrations before handing the store out; sqlite creates its
// own schema.
func openStore(cfg *config.Config, log *logrus.Logger) (ledger.Store, error) {
	switch cfg.Ledger.Driver {
	case "postgres":
		runner, err := ledger.NewMigrationRunner(cfg.Ledger.DatabaseURL, cfg.Ledger.MigrationsPath, log)
		if err != nil {
			return nil, err
		}
		if err := runner.Up(); err != nil {
			runner.Close()
			return nil, err
		}
		if err := runner.Close(); err != nil {
			return nil, err
		}
		return ledger.NewPostgresStoreFromURL(cfg.Ledger.DatabaseURL)
	default:
		return ledger.NewSQLiteStore(cfg.Ledger.Path)
	}
}
