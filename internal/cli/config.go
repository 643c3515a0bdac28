package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Realitycheck configuration",
	Long: `Manage Realitycheck configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (REALITYCHECK_*)
3. Config file (~/.realitycheck/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after applying defaults, the config file, environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Embedding.APIKey != "" {
			cfg.Embedding.APIKey = "***"
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "marshal config")
		}
		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.realitycheck/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "find home directory")
		}

		configDir := filepath.Join(home, ".realitycheck")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return errors.WithHintf(errors.Newf("config file already exists: %s", configPath),
				"use 'realitycheck config show' to view it, or delete it first to recreate")
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return errors.Wrap(err, "create config directory")
		}

		f, err := os.Create(configPath)
		if err != nil {
			return errors.Wrap(err, "create config file")
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = errors.Wrap(closeErr, "close config file")
			}
		}()

		// Helper for writing with error checking
		printf := func(format string, a ...interface{}) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(f, format, a...)
		}

		printf("# Realitycheck configuration\n")
		printf("#\n")
		printf("# Configuration hierarchy (highest to lowest priority):\n")
		printf("#   1. CLI flags\n")
		printf("#   2. Environment variables (REALITYCHECK_*)\n")
		printf("#   3. This config file\n")
		printf("#   4. Built-in defaults\n\n")

		yamlData, mErr := yaml.Marshal(model.DefaultConfig())
		if mErr != nil {
			return errors.Wrap(mErr, "marshal config")
		}
		if err == nil {
			_, err = f.Write(yamlData)
		}

		printf("\n# Environment overrides:\n")
		printf("#   REALITYCHECK_DATA=path/to/db-dir\n")
		printf("#   REALITYCHECK_EMBED_SKIP=1\n")
		printf("#   REALITYCHECK_EMBED_PROVIDER=openai|ollama\n")
		printf("#   REALITYCHECK_EMBED_MODEL, REALITYCHECK_EMBED_API_BASE, REALITYCHECK_EMBED_DIM\n")
		printf("#   REALITYCHECK_EMBED_API_KEY (falls back to OPENAI_API_KEY)\n")

		if err != nil {
			return errors.Wrap(err, "write config")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(out, "\nTo view the configuration:\n")
		fmt.Fprintf(out, "  realitycheck config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
