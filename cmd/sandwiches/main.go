package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"

	"github.com/mamadbah2/sandwiches/internal/config"
	"github.com/mamadbah2/sandwiches/internal/repository/mongodb"
	"github.com/mamadbah2/sandwiches/internal/repository/sheets"
	"github.com/mamadbah2/sandwiches/internal/repository/workbook"
	"github.com/mamadbah2/sandwiches/internal/service/input"
	"github.com/mamadbah2/sandwiches/internal/service/market"
	reportingsvc "github.com/mamadbah2/sandwiches/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/sandwiches/pkg/clients/whatsapp"
	"github.com/mamadbah2/sandwiches/pkg/logger"
)

// Exit codes.
const (
	exitOK           = 0
	exitRunFault     = 1
	exitConfigFault  = 2
	exitUnauthorized = 3
)

var errConfig = errors.New("configuration error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	envFile     string
	workbook    string
	maxAttempts int
	summary     bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("sandwiches", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.envFile, "env", "", "dotenv file to load before reading the environment")
	fs.StringVar(&opts.workbook, "workbook", "", "store sheets in this local .xlsx file instead of Google Sheets")
	fs.IntVar(&opts.maxAttempts, "max-attempts", -1, "give up after this many invalid entries (0 = never, -1 = INPUT_MAX_ATTEMPTS)")
	fs.BoolVar(&opts.summary, "summary", true, "print the surplus and stock summary after the run")

	root := &ffcli.Command{
		Name:       "sandwiches",
		ShortUsage: "sandwiches [flags]",
		ShortHelp:  "Record market sales and compute surplus and next stock.",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix("SANDWICHES")},
		Exec: func(ctx context.Context, _ []string) error {
			return execute(ctx, opts, stdin, stdout)
		},
	}

	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfigFault
	}

	err := root.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConfig):
		return exitConfigFault
	case errors.Is(err, sheets.ErrUnauthorized):
		return exitUnauthorized
	default:
		return exitRunFault
	}
}

func execute(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load(opts.envFile, func(c *config.Config) {
		if opts.workbook != "" {
			c.Store.Backend = config.BackendWorkbook
			c.Store.WorkbookPath = opts.workbook
		}
		if opts.maxAttempts >= 0 {
			c.Input.MaxAttempts = opts.maxAttempts
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	baseLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	defer func() { _ = baseLogger.Sync() }()

	reporter, err := reportingsvc.NewService(cfg.Market, baseLogger.Named("svc.reporting"))
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	fmt.Fprintln(stdout, "Welcome to Love Sandwiches Data Automation")

	store, closeStore, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	svcOpts := []market.Option{
		market.WithHistoryWindow(cfg.Forecast.HistoryWindow),
		market.WithHeader(cfg.Sheets.Header),
	}

	if cfg.MongoDB.Enabled() {
		journal, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Warn("run journal unavailable, continuing without it", zap.Error(err))
		} else {
			defer func() {
				if err := journal.Close(context.Background()); err != nil {
					baseLogger.Error("failed to close mongodb connection", zap.Error(err))
				}
			}()
			svcOpts = append(svcOpts, market.WithJournal(journal))
		}
	}

	if cfg.WhatsApp.Enabled() {
		notifier := whatsappclient.NewNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.Recipient)
		svcOpts = append(svcOpts, market.WithNotifier(notifier, reporter))
		baseLogger.Info("whatsapp run summary enabled")
	}

	svc := market.NewService(store, stdout, baseLogger.Named("svc.market"), svcOpts...)
	collector := input.NewCollector(stdin, stdout,
		input.WithMaxAttempts(cfg.Input.MaxAttempts),
		input.WithLogger(baseLogger.Named("input")))

	result, err := svc.Session(ctx, collector)
	if err != nil {
		return err
	}

	if opts.summary {
		fmt.Fprint(stdout, reporter.RunSummary(result))
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (sheets.Repository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendWorkbook:
		repo, err := workbook.Open(cfg.Store.WorkbookPath, cfg.Sheets.Header, baseLogger.Named("repo.workbook"))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				baseLogger.Error("failed to close workbook", zap.Error(err))
			}
		}, nil
	default:
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}
