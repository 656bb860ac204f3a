package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat-rooms/internal/auth"
	"github.com/Tyrowin/gochat-rooms/internal/identity"
	"github.com/Tyrowin/gochat-rooms/internal/server"
	"github.com/Tyrowin/gochat-rooms/internal/version"
)

func main() {
	configPath := flag.String("config", os.Getenv("GOCHAT_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log, err := server.NewLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logger")
	}
	log.WithField("version", version.GetVersion()).Info("Starting GoChat Rooms server...")

	ctx := context.Background()

	var (
		opts     []server.Option
		store    auth.AccountStore
		verifier identity.Verifier
	)
	opts = append(opts, server.WithLogger(log))

	if cfg.Identity.TokenSecret != "" {
		store, err = openAccountStore(ctx, cfg.Accounts)
		if err != nil {
			log.WithError(err).Fatal("Failed to open account store")
		}
		if err := auth.Seed(ctx, store, seedAccounts(cfg.Accounts.Users)); err != nil {
			log.WithError(err).Fatal("Failed to seed accounts")
		}

		tokens := auth.NewTokenManager(auth.TokenConfig{
			Secret: cfg.Identity.TokenSecret,
			Issuer: cfg.Identity.TokenIssuer,
			TTL:    cfg.Identity.TokenTTL,
		})
		verifier = tokens

		service := auth.NewService(store, auth.NewPasswordHasher(), tokens)
		opts = append(opts, server.WithLoginHandler(auth.NewLoginHandler(service, log)))
	}

	strategy, err := identity.New(identity.Mode(cfg.Identity.Mode), verifier)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure identity")
	}

	srv, err := server.New(cfg, strategy, opts...)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"server": func(ctx context.Context) error {
				log.Info("Graceful shutdown initiated...")
				return srv.Shutdown(ctx)
			},
			"accounts": func(context.Context) error {
				if store == nil {
					return nil
				}
				return store.Close()
			},
		},
	)

	exitCode := <-wait
	log.Infof("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func openAccountStore(ctx context.Context, cfg server.AccountsConfig) (auth.AccountStore, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryStore(), nil
	}
	store, err := auth.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect to account redis: %w", err)
	}
	return store, nil
}

func seedAccounts(users []server.AccountConfig) []auth.Account {
	accounts := make([]auth.Account, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, auth.Account{Name: u.Name, PasswordHash: u.PasswordHash})
	}
	return accounts
}
