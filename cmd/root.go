package cmd

import (
	"github.com/markuskkkl/dav-pimcore/config"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	flagCookie    string
	flagCSRFToken string
	flagBaseURL   string
)

var rootCmd = &cobra.Command{
	Use:   "dav-pimcore",
	Short: "Gruppentermine export from the Sektion's Pimcore backend",
	Long: `Extracts the Gruppentermine of both event classes from the Pimcore
admin API and renders them as a single cross-referenced HTML report.

The backend session cookie and CSRF token have to be copied out of an
authenticated browser session and passed via flags, config file or
environment.`,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".", "config file search path")
	rootCmd.PersistentFlags().StringVar(&flagCookie, "cookie", "", "backend session cookie (e.g. \"PHPSESSID=...\")")
	rootCmd.PersistentFlags().StringVar(&flagCSRFToken, "csrf-token", "", "backend CSRF token")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "backend base URL")
}

// loadConfig loads the configuration and applies flag overrides on top
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "failed to load configuration")
	}

	if flagCookie != "" {
		cfg.Backend.Cookie = flagCookie
	}
	if flagCSRFToken != "" {
		cfg.Backend.CSRFToken = flagCSRFToken
	}
	if flagBaseURL != "" {
		cfg.Backend.BaseURL = flagBaseURL
	}

	return cfg, nil
}
