package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/yard/app"
	"github.com/kilianp07/yard/config"
	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/strategy"
	"github.com/kilianp07/yard/infra/logger"
)

var (
	cfgPath string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:               "yard",
	Short:             "Container storage yard simulator",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the configuration")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadEnv exports the dotenv file so that YARD_ overrides reach the config.
// Variables already set in the environment win.
func loadEnv(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newService(cfg *config.Config) (*app.Service, func(), error) {
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}, nil
}

// strategyNamed builds a strategy, reusing the configured settings when the
// configured strategy has the same type.
func strategyNamed(cfg *config.Config, name string) (strategy.Strategy, error) {
	if name == "" || name == cfg.Strategy.Type {
		return strategy.New(cfg.Strategy)
	}
	return strategy.New(factory.ModuleConfig{Type: name})
}
