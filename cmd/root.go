// Package cmd wires the xrsd command line: the registry daemon plus
// client-side lookup and registration tools.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xrs-network/xrsd/internal/config"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "xrsd",
	Short:   "XRS name registry daemon and tools",
	Long:    `xrsd runs the XRS naming registry (handles like alice.xrs mapped to blockchain addresses) and provides client commands for resolving, registering, and checking names against a running registry.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/xrsd/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().String("endpoint", "",
		"registry endpoint for client commands (overrides config)")

	_ = viper.BindPFlag("resolver.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("database.backend", defaults.Database.Backend)
	viper.SetDefault("database.path", defaults.Database.Path)
	viper.SetDefault("resolver.endpoint", defaults.Resolver.Endpoint)
	viper.SetDefault("resolver.cache_ttl", defaults.Resolver.CacheTTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .xrsd/config.yaml (current directory)
		// 2. ~/.config/xrsd/config.yaml (user config)
		if _, err := os.Stat(".xrsd/config.yaml"); err == nil {
			viper.SetConfigFile(".xrsd/config.yaml")
		} else {
			viper.AddConfigPath(config.DefaultConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Missing config files are fine; defaults carry the day.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
