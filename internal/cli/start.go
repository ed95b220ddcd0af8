package cli

import (
	"github.com/spf13/cobra"

	"github.com/Paintersrp/sma/internal/config"
)

func newStartCmd(ctx *context) *cobra.Command {
	var (
		exitOn      int
		cwd         string
		cascadeKill bool
	)

	cmd := &cobra.Command{
		Use:   "start <command>...",
		Short: "Start applications given on the command line",
		Long: "Start every command in order. With --exit-on, wait for the command at that\n" +
			"zero-based index to exit and then stop all the others.",
		Example: `  sma start "server --port 8080" "worker" --exit-on 0`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index *int
			if cmd.Flags().Changed("exit-on") {
				index = &exitOn
			}
			cfg := config.New(args, index)
			if cwd != "" {
				cfg.Cwd = &cwd
			}
			cfg.CascadeKill = cascadeKill

			spec, err := cfg.Validate()
			if err != nil {
				return err
			}
			return ctx.run(cmd, spec)
		},
	}

	cmd.Flags().IntVarP(&exitOn, "exit-on", "e", 0, "Index of the command whose exit stops all the others")
	cmd.Flags().StringVarP(&cwd, "cwd", "C", "", "Working directory for the started applications")
	cmd.Flags().BoolVar(&cascadeKill, "cascade-kill", false, "Also kill processes started by the applications")
	return cmd
}
