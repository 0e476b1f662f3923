// Package cli provides the stakequorum command-line utility.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/quorumlab/stakequorum/logging"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "stakequorum",
		Short: "A command-line utility for exercising the quorum certification core.",
		Long: `stakequorum is a command-line utility for exercising the stake-weighted
quorum certification core against in-process authorities.

Use 'stakequorum simulate' to submit a batch of transactions through the
quorum driver and report how many reached a certificate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stakequorum.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "sets the log level (debug, info, warn, error)")
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	rootCmd.PersistentFlags().StringSlice("log-pkgs", []string{}, "set the log level on a per-package basis. Format: pkg:level")
	cobra.CheckErr(viper.BindPFlag("log-pkgs", rootCmd.PersistentFlags().Lookup("log-pkgs")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigName(".stakequorum")
	}

	viper.SetEnvPrefix("stakequorum")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	logging.SetLogLevel(viper.GetString("log-level"))
	for _, pkgLevel := range viper.GetStringSlice("log-pkgs") {
		pkg, level, ok := strings.Cut(pkgLevel, ":")
		if !ok {
			cobra.CheckErr(fmt.Errorf("invalid log-pkgs entry %q", pkgLevel))
		}
		logging.SetPackageLogLevel(pkg, level)
	}
}
