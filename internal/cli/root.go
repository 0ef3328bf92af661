package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/eqverify/internal/logging"
	"github.com/ppiankov/eqverify/internal/model"
)

// Version is the release version, overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	logger   = slog.Default()
	closeLog = func() error { return nil }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "eqverify",
	Short: "eqverify - Symbolic verification of equation catalogs",
	Long: `eqverify loads a catalog of equation statements, tries to prove each
identity symbolically and reports every statement as proved, disproved,
inconclusive, assertion or error.

Axioms, definitions and regime claims are recorded as assertions and never
counted as proofs. Numeric sampling only tags inconclusive results.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		l, closer, err := logging.New(cfg.Logging, os.Stderr)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		logger, closeLog = l, closer
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for eqverify.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "eqverify %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.eqverify/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "stderr log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.eqverify")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match EQVERIFY_*, e.g. EQVERIFY_PROVER_TIMEOUT
	viper.SetEnvPrefix("EQVERIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case errors.As(err, &notFound):
	default:
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
}

// setDefaults registers every configuration key so environment variables
// and config files can override it
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("prover.timeout", d.Prover.Timeout)
	v.SetDefault("prover.max_terms", d.Prover.MaxTerms)
	v.SetDefault("prover.numeric_fallback", d.Prover.NumericFallback)
	v.SetDefault("prover.numeric_samples", d.Prover.NumericSamples)
	v.SetDefault("prover.default_domain", string(d.Prover.DefaultDomain))
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("concurrency.catalogs", d.Concurrency.Catalogs)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("output.include_footer", d.Output.IncludeFooter)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("metrics.file", d.Metrics.File)
}

// loadConfig builds the effective configuration (flags, env, file, defaults)
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	domain, err := model.ParseDomain(string(cfg.Prover.DefaultDomain))
	if err != nil {
		return nil, fmt.Errorf("prover.default_domain: %w", err)
	}
	cfg.Prover.DefaultDomain = domain

	if cfg.Concurrency.Workers < 1 {
		cfg.Concurrency.Workers = runtime.NumCPU()
	}
	if cfg.Concurrency.Catalogs < 1 {
		cfg.Concurrency.Catalogs = 1
	}
	if cfg.Prover.NumericSamples < 0 {
		return nil, fmt.Errorf("prover.numeric_samples must not be negative")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindFlags binds command flags to config keys. Binding happens when the
// command runs because verify and batch share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
