package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "validity",
	Short: "Manage the validity periods of entities",
	Long: `validity stores versions of an entity's data, each valid over a period of
whole days, and keeps those periods from overlapping. It lists the periods,
their holes and the version valid on a given day, and edits the periods.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .validity.yaml)")
	flags.String("db", "", "sqlite database path")
	flags.StringP("entity", "e", "", "entity the records belong to")
	flags.String("start-field", "", "record field holding the start date")
	flags.String("end-field", "", "record field holding the end date")
	flags.String("log-level", "", "debug, info, warn or error")
}

var flagKeys = map[string]string{
	"db":          "db",
	"entity":      "entity",
	"start-field": "start_field",
	"end-field":   "end_field",
	"log-level":   "log_level",
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".validity")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("VALIDITY")
	viper.AutomaticEnv()

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
