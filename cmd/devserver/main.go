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

	"github.com/common-nighthawk/go-figure"

	"github.com/newscoin/newscoin/internal/config"
	"github.com/newscoin/newscoin/internal/devserver"
	"github.com/newscoin/newscoin/internal/devserver/handlers"
	"github.com/newscoin/newscoin/internal/devserver/storage/sqlite"
	"github.com/newscoin/newscoin/internal/devserver/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadDevServer(os.Args[0], os.Args[1:])
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

	displayAppname("NewsCoin")

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	if cfg.SeedNews {
		n, err := devserver.SeedArticles(ctx, store, issuer.Now())
		if err != nil {
			logger.Error("failed to seed articles", "error", err)
			return 1
		}
		logger.Info("articles seeded", "count", n)
	}

	deps := devserver.Deps{
		Store:   store,
		Issuer:  issuer,
		Logger:  logger,
		Version: Version,
		Config:  *cfg,
	}

	if cfg.GoogleClientID != "" {
		verifier, err := handlers.NewGoogleVerifier(ctx, cfg.GoogleIssuer, cfg.GoogleClientID)
		if err != nil {
			// вход по email работает и без Google
			logger.Warn("google sign-in disabled", "error", err)
		} else {
			deps.Google = verifier
		}
	}

	srv := devserver.New(deps)
	defer srv.Close()

	if err := srv.Run(ctx, cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func displayAppname(appname string) {
	figure.NewFigure(appname, "cybermedium", true).Print()
	fmt.Println()
}

func printVersion() {
	fmt.Printf("NewsCoin dev server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
