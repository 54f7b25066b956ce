package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/config"
	"github.com/datakraft/azurekit/pkg/logging"
	"github.com/datakraft/azurekit/pkg/metrics"
)

var (
	flagConfigFile string
	flagEnvFile    string
	flagLogLevel   string
	flagLogFormat  string
	flagLogFile    string

	logger *log.Logger
	cfg    *config.Manager
)

func main() {
	root := &cobra.Command{
		Use:           "azurekit",
		Short:         "Thin clients for Azure data services and Power BI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			metrics.Register(prometheus.DefaultRegisterer)

			var err error
			logger, err = logging.New(logging.Options{
				Level:   flagLogLevel,
				Format:  logging.Format(flagLogFormat),
				LogFile: flagLogFile,
			})
			if err != nil {
				return err
			}

			opts := []config.Option{config.WithLogger(logger)}
			if flagConfigFile != "" {
				opts = append(opts, config.WithConfigFile(flagConfigFile))
			}
			if flagEnvFile != "" {
				opts = append(opts, config.WithEnvFile(flagEnvFile))
			}
			cfg, err = config.New(opts...)
			if err != nil {
				return err
			}
			return cfg.BindFlags(cmd.Flags())
		},
	}

	root.PersistentFlags().StringVarP(&flagConfigFile, "config", "c", "", "path to the configuration file")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "path to a .env file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text or json)")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file")

	root.AddCommand(
		adfCommand(),
		storageCommand(),
		sqlCommand(),
		eventhubCommand(),
		powerbiCommand(),
		pipelineCommand(),
	)

	if err := root.Execute(); err != nil {
		if logger != nil {
			logger.WithError(err).Error("command failed")
		} else {
			log.WithError(err).Error("command failed")
		}
		os.Exit(1)
	}
}
