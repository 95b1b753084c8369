package main

import (
	"context"
	"flag"
	"os"

	"taskdesk/internal/app"
	"taskdesk/internal/notify"
	"taskdesk/internal/server"
)

// seed creates the first admin account. Flags override ADMIN_NAME,
// ADMIN_EMAIL and ADMIN_PASSWORD; server flags come after "--".
func main() {
	logger := app.NewLogger()

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	name := fs.String("name", "", "admin display name")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	_ = fs.Parse(os.Args[1:])

	cfg, err := server.ReadConfig(fs.Args(), logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("failed to read config")
	}
	if *name != "" {
		cfg.Admin.Name = *name
	}
	if *email != "" {
		cfg.Admin.Email = *email
	}
	if *password != "" {
		cfg.Admin.Password = *password
	}
	if cfg.Admin.Password == "" {
		logger.Fatal().Msg("admin password is required: set ADMIN_PASSWORD or -password")
	}

	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg, logger, false)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("failed to open database")
	}
	defer closeStore()

	svc := app.NewServices(cfg, store, discard{}, logger)
	if err := app.BootstrapAdmin(ctx, cfg, store, svc.Users, logger); err != nil {
		logger.Error().
			Err(err).
			Str("email", cfg.Admin.Email).
			Msg("failed to seed admin")
		closeStore()
		os.Exit(1)
	}
}

type discard struct{}

func (discard) Notify(notify.Message) {}
