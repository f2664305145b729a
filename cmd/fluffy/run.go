package main

import (
	"github.com/alexandre-normand/fluffy"
	"github.com/alexandre-normand/fluffy/config"
	"github.com/alexandre-normand/fluffy/handlers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultBotName = "fluffy"

var (
	configFile string
	botName    string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Long:  "Connect to slack and process messages until SIGINT or SIGTERM. A failed connection exits with status 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Load(configFile)
			if err != nil {
				return err
			}

			if err := config.Validate(v); err != nil {
				return err
			}

			bot, err := newBot(botName, v)
			if err != nil {
				return err
			}
			defer bot.Close()

			return bot.Run(cmd.Context())
		},
	}
)

// newBot builds a bot with all the stock handlers
func newBot(name string, v *viper.Viper, options ...fluffy.Option) (bot *fluffy.Bot, err error) {
	return handlers.Register(fluffy.NewBot(name, v, options...), name, fluffy.VERSION).Build()
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file (yaml, json or toml)")
	runCmd.Flags().StringVarP(&botName, "name", "n", defaultBotName, "name of the bot used in metrics and the version reply")
}
