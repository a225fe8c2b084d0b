package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
	"github.com/ethanolivertroy/pyproject-deps/internal/reporter"
	"github.com/ethanolivertroy/pyproject-deps/internal/scanner"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	appName   = "pyproject-deps"
	envPrefix = "PYPROJECT_DEPS"
)

// Execute runs the root command and exits with a status derived from the error.
func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		log.Error().Err(errorCause(err)).Msg(errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   appName + " [paths...]",
		Short: "Extract declared dependencies from pyproject.toml files",
		Long: `pyproject-deps finds pyproject.toml files and extracts every declared
dependency into a uniform record for update tooling.

Dependencies are read from:
  - build-system.requires
  - project.dependencies
  - project.optional-dependencies.<group>
  - tool.hatch.envs.<env>.dependencies

Declarations that cannot be split into a package name and a PEP 440
specifier are still reported, so malformed entries are never dropped.

Examples:
  # Scan current directory
  pyproject-deps

  # Scan specific files or directories
  pyproject-deps ./pyproject.toml ./services

  # Output as JSON or YAML
  pyproject-deps --format json
  pyproject-deps --format yaml

  # Output SARIF for GitHub Code Scanning
  pyproject-deps --format sarif --output results.sarif

  # Also reject specifiers that are not valid PEP 440
  pyproject-deps --validate

  # Don't fail on findings (exit 0 regardless)
  pyproject-deps --no-fail`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v, configFile); err != nil {
				return err
			}
			setupLogging(v.GetString("log_level"))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd.OutOrStdout(), v, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file path")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("cache-dir", "", "Cache directory (default: ~/.cache/pyproject-deps)")

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: stdout)")
	f.StringP("format", "f", "terminal", "Output format: "+strings.Join(reporter.Formats, ", "))
	f.Bool("no-fail", false, "Don't exit with error code if findings are reported")
	f.Bool("validate", false, "Report specifiers that are not valid PEP 440")
	f.Bool("no-cache", false, "Disable extraction result caching")
	f.Duration("cache-ttl", 24*time.Hour, "Extraction cache time-to-live")
	f.StringSlice("exclude", nil, "Directory names to skip while scanning")

	bindFlags(v, pf, "log-level", "cache-dir")
	bindFlags(v, f, "output", "format", "no-fail", "validate", "no-cache", "cache-ttl", "exclude")

	cmd.AddCommand(newCacheCommand(v))
	return cmd
}

// bindFlags exposes flags to viper under their snake_case names.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
}

func initConfig(v *viper.Viper, configFile string) error {
	// .env values are visible to viper's environment lookup
	_ = godotenv.Load()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/" + appName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read config file").
			WithCause(err)
	}
	log.Debug().Str("file", v.ConfigFileUsed()).Msg("loaded config file")
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// loadConfig builds the scanner configuration from flags, environment and config file.
func loadConfig(v *viper.Viper, args []string) (*models.Config, error) {
	config := models.DefaultConfig()
	if len(args) > 0 {
		config.Paths = args
	} else if paths := v.GetStringSlice("paths"); len(paths) > 0 {
		config.Paths = paths
	}

	config.OutputFormat = v.GetString("format")
	config.OutputFile = v.GetString("output")
	config.FailOnInvalid = !v.GetBool("no_fail")
	config.ValidateConstraints = v.GetBool("validate")
	config.NoCache = v.GetBool("no_cache")
	config.CacheDir = v.GetString("cache_dir")
	config.CacheTTL = v.GetDuration("cache_ttl")
	config.Exclude = v.GetStringSlice("exclude")

	if !reporter.Supported(config.OutputFormat) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported format %q (want one of %s)",
				config.OutputFormat, strings.Join(reporter.Formats, ", ")))
	}
	return config, nil
}

func runExtract(ctx context.Context, stdout io.Writer, v *viper.Viper, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	config, err := loadConfig(v, args)
	if err != nil {
		return err
	}

	// Create scanner
	s, err := scanner.New(config)
	if err != nil {
		return err
	}

	// Run scan
	result, err := s.Scan(ctx)
	if err != nil {
		return err
	}

	// Generate report
	output, err := reporter.Get(config.OutputFormat).Report(result)
	if err != nil {
		return err
	}

	// Write output
	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, output, 0644); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write output file").
				WithCause(err)
		}
		log.Info().Str("file", config.OutputFile).Msg("report written")
	} else if _, err := stdout.Write(output); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write report").
			WithCause(err)
	}

	if result.HasFindings() && config.FailOnInvalid {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%d findings reported", len(result.Findings)))
	}
	return nil
}

func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeFailedPrecondition:
		return 1
	case errbuilder.CodeInvalidArgument:
		return 2
	case errbuilder.CodeNotFound:
		return 3
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

// errorCause returns the error wrapped by an errbuilder error, if any.
func errorCause(err error) error {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) {
		return errors.Unwrap(builder)
	}
	return nil
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
