// Package cmd wires the stashd command line: serving the API, first-time
// setup, and account administration.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stashd/internal/account"
	"stashd/internal/config"
	"stashd/internal/db"
	"stashd/internal/logging"
	"stashd/internal/mail"
	"stashd/internal/session"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "stashd",
	Short:         "Self-hosted multi-tenant file storage",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "stashd.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd, setupCmd, adminCmd)
}

// Execute runs the CLI. A .env file next to the binary, when present, feeds
// the environment before anything reads it.
func Execute() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is the loaded runtime shared by the subcommands.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *db.DB
	sessions *session.Manager
	accounts *account.Service
}

func loadEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Default: true,
	})
	if err != nil {
		return nil, err
	}
	d, err := db.Open(ctx, cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sessions := session.NewManager(d, cfg.SessionTTL())
	accounts := &account.Service{
		DB:       d,
		Sessions: sessions,
		Mailer:   newMailer(cfg, logger),
		Logger:   logger,
		NoReply:  cfg.Mail.From,
		Support:  cfg.Mail.Support,
		Domain:   cfg.Mail.Domain,
	}
	return &env{cfg: cfg, logger: logger, db: d, sessions: sessions, accounts: accounts}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("closing database", "error", err)
	}
}

func newMailer(cfg config.Config, logger *slog.Logger) mail.Sender {
	if cfg.Mail.Host == "" {
		return &mail.LogSender{Logger: logger}
	}
	return &mail.SMTPSender{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: os.Getenv("STASHD_SMTP_PASSWORD"),
	}
}
