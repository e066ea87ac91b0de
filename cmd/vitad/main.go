package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vita-ai/vita/internal/google"
	"github.com/vita-ai/vita/internal/server"
)

var version = "dev"

func main() {
	var cfgFile string

	// Local .env is optional and only used for development.
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "vitad",
		Short: "Vita daemon — AI planning assistant with calendar awareness",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(
				zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
			).With().Timestamp().Logger()

			cfg, err := server.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			d := server.NewDaemon(cfg, logger)
			return d.Run()
		},
	}

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize vitad to read your Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("google client_id and client_secret must be configured")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			token, err := google.AuthFlow(ctx, cfg.Google.ClientID, cfg.Google.ClientSecret)
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			if err := google.SaveTokenToFile(cfg.Google.TokenPath, token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Printf("\nAuthorization successful! Token saved to %s\n", cfg.Google.TokenPath)
			return nil
		},
	}

	rootCmd.AddCommand(authCmd)
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
