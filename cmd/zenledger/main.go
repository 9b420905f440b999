package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"zenledger/config"
	"zenledger/internal/adapter/storage/bolt"
	"zenledger/internal/cli"
	"zenledger/internal/service"
	"zenledger/pkg/logger"

	"github.com/google/subcommands"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")

	cdr := subcommands.NewCommander(flag.CommandLine, "zenledger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	kv, err := bolt.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("failed to open local database")
	}
	defer kv.Close()

	codec := service.NewEnvelopeCodec(cfg.Security.PBKDF2Iterations)
	session := service.NewSession(cfg.Session.TTL)
	store := service.NewSecureStore(kv, codec, session, cfg.Security.AllowPlaintextFallback, log)
	ledger := service.NewLedgerService(store, log)
	auth := service.NewAuthService(store, session, service.NewPINHasher(), ledger, log)
	exporter := service.NewCSVExporter(ledger)

	cli.Register(cdr, &cli.App{
		Auth:     auth,
		Ledger:   ledger,
		Store:    store,
		Exporter: exporter,
		Log:      log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(int(cdr.Execute(ctx)))
}
