package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notegrove",
		Short: "Note-taking API with model-backed extraction and translation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			initLogger()
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.notegrove/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.AddCommand(serveCmd())
	return cmd
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.notegrove")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("NOTEGROVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional; env vars alone are a valid setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return err
		}
	}
	return nil
}

// bindLegacyEnv keeps the original deployment's flat variable names
// working alongside the dotted config keys.
func bindLegacyEnv() {
	bindings := map[string]string{
		"hf.api_key":           "HF_API_KEY",
		"hf.model":             "HF_MODEL",
		"hf.translation_model": "HF_TRANSLATION_MODEL",
		"llm.api_key":          "OPENAI_API_KEY",
		"llm.endpoint":         "OPENAI_ENDPOINT",
		"llm.model":            "OPENAI_MODEL",
		"llm.github_token":     "GITHUB_TOKEN",
		"translator.api_key":   "MICROSOFT_TRANSLATOR_KEY",
		"translator.region":    "MICROSOFT_TRANSLATOR_REGION",
		"translator.endpoint":  "MICROSOFT_TRANSLATOR_ENDPOINT",
		"db.dsn":               "DATABASE_URL",
		"server.addr":          "SERVER_ADDR",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}
}

func initLogger() {
	level := slog.LevelInfo
	if verbose || viper.GetBool("log.debug") {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
