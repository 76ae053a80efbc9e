package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/auth"
	"github.com/newscoin/newscoin/internal/client/cli"
	"github.com/newscoin/newscoin/internal/client/feed"
	"github.com/newscoin/newscoin/internal/client/iocli"
	"github.com/newscoin/newscoin/internal/client/oauth"
	"github.com/newscoin/newscoin/internal/client/reader"
	"github.com/newscoin/newscoin/internal/client/session"
	"github.com/newscoin/newscoin/internal/client/storage"
	"github.com/newscoin/newscoin/internal/client/storage/boltdb"
	"github.com/newscoin/newscoin/internal/client/storage/sealed"
	"github.com/newscoin/newscoin/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// memoryDB keeps the session in memory only
const memoryDB = ":memory:"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, args, err := config.LoadClient(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if cfg.ShowVersion {
		printVersion()
		return 0
	}

	stdio := iocli.NewStdio()
	if len(args) == 0 {
		cli.New(cli.Deps{IO: stdio}).PrintUsage()
		return 1
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	// Ctrl+C прерывает чтение статьи и запросы
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeStorage()

	store := session.NewStore(kv, logger)
	client := api.NewClient(cfg.ServerURL, store,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger),
		api.WithUserAgent("newscoin-cli/"+Version),
		api.WithCoalescedRefresh(cfg.CoalesceRefresh),
	)

	authService := auth.NewService(client, store, logger)
	authService.Initialize(ctx)

	deps := cli.Deps{
		IO:    stdio,
		Auth:  authService,
		Users: client,
		Store: store,
		Feed:  feed.NewController(client),
	}

	if cfg.Google.ClientID != "" {
		flow, err := oauth.NewProviderFlow(ctx, oauth.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Issuer:       cfg.Google.Issuer,
		})
		if err != nil {
			// без Google остальные команды продолжают работать
			logger.Warn("google sign-in unavailable", "error", err)
		} else {
			deps.Google = flow
		}
	}

	c := cli.New(deps)
	tracker := reader.NewTracker(client, store,
		reader.WithDwell(cfg.ReadDwell),
		reader.WithLogger(logger),
		reader.WithOutcome(c.ReportOutcome),
	)
	defer tracker.Stop()
	c.SetTracker(tracker, cfg.ReadDwell)

	if err := c.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUnknownCommand) {
			c.PrintUsage()
		}
		return 1
	}
	return 0
}

// openStorage opens the session storage, sealed with the passphrase if
// one is configured
func openStorage(ctx context.Context, cfg *config.Client) (storage.KeyValueStorage, func(), error) {
	if cfg.DBPath == memoryDB {
		mem := storage.NewMemory()
		if cfg.Passphrase == "" {
			return mem, func() {}, nil
		}
		sealedStorage, err := sealed.New(ctx, mem, storage.NewMemory(), cfg.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return sealedStorage, func() {}, nil
	}

	boltStorage, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closeFn := func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}

	if cfg.Passphrase == "" {
		return boltStorage.Session(), closeFn, nil
	}

	sealedStorage, err := sealed.New(ctx, boltStorage.Session(), boltStorage.Meta(), cfg.Passphrase)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to unlock storage: %w", err)
	}
	return sealedStorage, closeFn, nil
}

func printVersion() {
	fmt.Printf("NewsCoin Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
