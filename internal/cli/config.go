package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/sma/internal/cliutil"
	"github.com/Paintersrp/sma/internal/config"
)

func configPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return config.DefaultFileName
}

func newConfigCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [file]",
		Short: "Start applications described by a config file",
		Long:  fmt.Sprintf("Start applications described by a config file (default %s).", config.DefaultFileName),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := cliutil.LoadConfigFromFile(configPath(args))
			if err != nil {
				return err
			}
			return ctx.run(cmd, doc.Config)
		},
	}
	cmd.AddCommand(newConfigLintCmd())
	return cmd
}

func newConfigLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Validate a config file without starting anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := cliutil.LoadConfigFromFile(configPath(args))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", doc.Source)
			return nil
		},
	}
	return cmd
}
