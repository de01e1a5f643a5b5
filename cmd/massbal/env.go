package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/massbal/massbal/pkg/config"
)

// envFiles are loaded in order; variables already set are never overwritten,
// so earlier files take precedence.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles() {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// applyEnv fills every flag the user did not set on the command line from
// MASSBAL_<FLAG> environment variables, with dashes mapped to underscores.
func applyEnv(cmd *cobra.Command) error {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("MASSBAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || f.Name == "version" || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("environment MASSBAL_%s: %w",
				strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return firstErr
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig reads the config named by --config, or the nearest
// .massbal/config.yaml above the working directory. A broken discovered file
// falls back to defaults with a warning; a broken explicit file is an error.
func loadConfig(cmd *cobra.Command, logger *logrus.Logger) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfgFile := config.FindConfigFile(wd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).WithField("path", cfgFile).Warn("Failed to load config, using defaults")
		return config.DefaultConfig(), nil
	}
	logger.WithField("path", cfgFile).Debug("Loaded config")
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
