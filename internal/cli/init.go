package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default audit policy file to the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.FileName); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
			}
			if err := config.Default().Save(config.FileName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.FileName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing policy file")
	return cmd
}
