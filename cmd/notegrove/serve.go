package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notegrove/notegrove/db"
	"github.com/notegrove/notegrove/httpapi"
	"github.com/notegrove/notegrove/notes"
	"github.com/notegrove/notegrove/providers"
)

const defaultAddr = ":5000"

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :5000)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(ctx context.Context) error {
	log := slog.Default()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := db.DefaultConfig()
	if dsn := viper.GetString("db.dsn"); dsn != "" {
		dbCfg.DSN = dsn
	}
	gdb, err := db.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database_ready", "dsn", dbCfg.DSN)

	caps := providers.Select(providers.Config{
		HFAPIKey:           viper.GetString("hf.api_key"),
		HFModel:            viper.GetString("hf.model"),
		HFTranslationModel: viper.GetString("hf.translation_model"),
		OpenAIAPIKey:       viper.GetString("llm.api_key"),
		OpenAIEndpoint:     viper.GetString("llm.endpoint"),
		OpenAIModel:        viper.GetString("llm.model"),
		GitHubToken:        viper.GetString("llm.github_token"),
		TranslatorAPIKey:   viper.GetString("translator.api_key"),
		TranslatorRegion:   viper.GetString("translator.region"),
		TranslatorEndpoint: viper.GetString("translator.endpoint"),
	}, log)

	svc := notes.NewService(caps.Generator, caps.Translator, notes.NewStore(gdb), log)
	api := httpapi.New(svc, log)

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = defaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
