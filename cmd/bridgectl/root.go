package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	dotenv "github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/omni/vaa-bridge/cmd/internal/app"
	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/logging"
)

var (
	logger = logging.New()
	cfg    *config.Config
	env    *app.App
)

var rootCmd = &cobra.Command{
	Use:           "bridgectl",
	Short:         "Administration tool for the VAA bridge",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.ReadConfigFromFile(viper.GetString("config"))
		if err != nil {
			return err
		}
		logger.SetLevel(cfg.LogLevel)
		if viper.GetBool("debug") {
			logger.SetLevel(logrus.DebugLevel)
		}
		env, err = app.Open(logger, cfg)
		if err != nil {
			return err
		}
		if !env.Persistent() {
			logger.Warn("changes made by bridgectl are discarded with in-memory storage")
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if env != nil {
			env.Close()
		}
	},
}

func init() {
	// .env is optional
	_ = dotenv.Load()

	rootCmd.PersistentFlags().String("config", "config.yml", "Path to the bridge config file")
	rootCmd.PersistentFlags().String("caller", "", "Address admin operations are made on behalf of, defaults to the configured authority")
	rootCmd.PersistentFlags().Bool("debug", false, "Enables debug output")

	//nolint:errcheck
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	//nolint:errcheck
	viper.BindPFlag("caller", rootCmd.PersistentFlags().Lookup("caller"))
	//nolint:errcheck
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix("bridgectl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func caller() (common.Address, error) {
	raw := viper.GetString("caller")
	if raw == "" {
		return cfg.Bridge.Authority, nil
	}
	return parseAddress(raw)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("can't encode result: %w", err)
	}
	return nil
}
