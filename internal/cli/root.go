// Package cli is the composable command: scripted sessions against the
// example features, run on a live store.
package cli

import (
	"github.com/on-the-ground/composable_go/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Metrics    bool

	config config.Config
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "composable",
		Short: "Run the composable example features",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics") {
				c.Store.Metrics = opts.Metrics
			}
			opts.config = c
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print store metrics when done")

	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVoiceMemosCommand(opts))
	cmd.AddCommand(NewSyncUpsCommand(opts))

	return cmd
}

func NewConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.config.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
