package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/legalintel/counsel/pkg/config"
	"github.com/legalintel/counsel/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "counsel",
	Short: "Legal assistant chat",
	Long:  `Terminal chat client for a hosted legal-assistant model, with optional per-user durable history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		logFile := cfg.Logging.LogFile
		if logFile == "" {
			logFile = "counsel.log"
		}
		return logger.Init(cfg.Logging.Level, config.BuildSettingsPath(logFile), cfg.Logging.Preserve)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Close()
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.counsel/settings.yaml or ~/.counsel/settings.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "model provider: ollama or openai")
	rootCmd.PersistentFlags().String("model", "", "model name for the selected provider")
	rootCmd.PersistentFlags().String("ollama-url", "", "Ollama server URL")
	rootCmd.PersistentFlags().String("nats-url", "", "NATS server URL for the durable chat log")
	rootCmd.PersistentFlags().String("user", "", "owner ID for persisted history (empty = anonymous)")

	mustBind("provider", "provider")
	mustBind("ollama.model", "model")
	mustBind("openai.model", "model")
	mustBind("ollama.url", "ollama-url")
	mustBind("nats.url", "nats-url")
	mustBind("chat.owner", "user")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
