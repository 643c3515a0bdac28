package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	jsonLog bool
	dataDir string
	noEmbed bool
	format  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "realitycheck",
	Short: "Realitycheck - a registry of claims, sources, chains and predictions",
	Long: `Realitycheck keeps an epistemic registry: atomic claims with calibrated
credence, the sources they cite, argument chains built from claims, and
predictions tracked over time.

Every record is validated before it is stored, gets a stable ID, and is
embedded for semantic search. Cross-record integrity is checked in batch
with 'realitycheck validate'.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "realitycheck v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := model.DefaultConfig()

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.realitycheck/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&jsonLog, "json-log", false, "log as JSON")
	flags.StringVar(&dataDir, "data", defaults.Data.Path, "database directory (env REALITYCHECK_DATA)")
	flags.BoolVar(&noEmbed, "no-embed", false, "store records without computing embeddings (env REALITYCHECK_EMBED_SKIP)")
	flags.StringVarP(&format, "format", "o", defaults.Output.Format, "output format: text, json, yaml")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("output.json_log", flags.Lookup("json-log"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
	_ = viper.BindPFlag("data.path", flags.Lookup("data"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.realitycheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// REALITYCHECK_EMBEDDING_TIMEOUT etc. map onto nested keys
	viper.SetEnvPrefix("REALITYCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Short names used by scripts and agents
	_ = viper.BindEnv("data.path", "REALITYCHECK_DATA")
	_ = viper.BindEnv("embedding.provider", "REALITYCHECK_EMBED_PROVIDER")
	_ = viper.BindEnv("embedding.model", "REALITYCHECK_EMBED_MODEL")
	_ = viper.BindEnv("embedding.base_url", "REALITYCHECK_EMBED_API_BASE")
	_ = viper.BindEnv("embedding.api_key", "REALITYCHECK_EMBED_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("embedding.dim", "REALITYCHECK_EMBED_DIM")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers flags, environment and config file over the defaults
func loadConfig(cmd *cobra.Command) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, errors.WithHint(errors.Wrap(err, "decode configuration"),
			"check the config file with: realitycheck config show")
	}

	// The skip flag is read by hand: any value except 0/false/no/off enables it
	if v, ok := os.LookupEnv("REALITYCHECK_EMBED_SKIP"); ok {
		cfg.Embedding.Skip = truthy(v)
	}
	if cmd.Flags().Changed("no-embed") {
		cfg.Embedding.Skip = noEmbed
	}
	return cfg, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// withRegistry opens the configured registry for the duration of fn
func withRegistry(cmd *cobra.Command, fn func(ctx context.Context, reg *registry.Registry) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Output.Verbose, cfg.Output.JSONLog)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer func() { _ = log.Sync() }()

	reg, err := registry.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reg.Close(); cerr != nil {
			log.Warn("Close registry", zap.Error(cerr))
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, reg)
}
