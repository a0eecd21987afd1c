// Command opline parses management console command lines.
//
// Build:
//
//	go build -o opline ./cmd/opline
//
// Usage:
//
//	./opline parse '/subsystem=logging:read-resource(recursive=true)' --format compact
//	./opline parse 'logger=app:remove; logger=web:remove' --prefix /subsystem=logging --format json
//	./opline value '{level=>DEBUG,handlers=[console,file]}' --format cty
//	./opline resolve '${env.HOME:/tmp}/standalone'
//	./opline split 'a=b:op(x=1); :reload' --format compact
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/relux-works/opline/cobraext"
	"github.com/relux-works/opline/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires the subcommands under a root that loads the
// configuration file and log flags before any of them runs.
func newRootCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)
	settings := &cobraext.Settings{}

	root := &cobra.Command{
		Use:          "opline",
		Short:        "Parse management console command lines",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			settings.Config = cfg
			settings.Logger = cfg.Logger(cmd.ErrOrStderr())
			settings.Logger.Debug("config loaded", "path", configPath)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("OPLINE_CONFIG"), "Configuration file (.toml, .yaml or .yml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	cobraext.AddCommands(root, settings)
	return root
}
