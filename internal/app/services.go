package app

import (
	"github.com/rs/zerolog"

	"taskdesk/internal/auth"
	"taskdesk/internal/notify"
	"taskdesk/internal/server"
	"taskdesk/internal/services"
)

// NewServices builds the service layer over store.
func NewServices(cfg *server.Config, store Store, notifier services.Notifier, logger zerolog.Logger) server.Services {
	clock := services.Clock(cfg.Location())
	templates := notify.NewTemplates(cfg.BaseURL())
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL.Std(), cfg.JWT.Issuer)

	return server.Services{
		Auth:    services.NewAuthService(logger.With().Str("service", "auth").Logger(), store, tokens),
		Users:   services.NewUserService(logger.With().Str("service", "users").Logger(), store, notifier, templates, clock),
		Tasks:   services.NewTaskService(logger.With().Str("service", "tasks").Logger(), store, store, notifier, templates, clock),
		A3:      services.NewA3Service(logger.With().Str("service", "a3").Logger(), store, store, notifier, templates, clock),
		Reports: services.NewReportService(logger.With().Str("service", "reports").Logger(), store, clock),
	}
}

// NewDispatcher picks SMTP delivery when credentials are configured and
// logs messages otherwise.
func NewDispatcher(cfg *server.Config, logger zerolog.Logger) *notify.Dispatcher {
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}

	var mailer notify.Mailer
	if smtpCfg.Configured() {
		mailer = notify.NewSMTPMailer(smtpCfg)
		logger.Info().
			Str("host", smtpCfg.Host).
			Int("port", smtpCfg.Port).
			Msg("smtp mailer configured")
	} else {
		mailer = notify.NewLogMailer(logger)
		logger.Warn().Msg("smtp not configured, emails will only be logged")
	}

	return notify.NewDispatcher(mailer, logger.With().Str("component", "notify").Logger(), notify.DispatcherConfig{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
	})
}
