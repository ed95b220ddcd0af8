package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/sma/internal/config"
)

func newCreateConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create-config [file]",
		Short: "Create an empty config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(configPath(args))
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if err := config.WriteTemplate(path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w\n\nHint: pass --force-override to replace it", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force-override", "f", false, "Overwrite an existing config file")
	return cmd
}
