package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/detectors"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List built-in detector rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, _, err := config.Load(".")
			if err != nil {
				return err
			}
			reg := detectors.NewRegistry()
			reg.RegisterBuiltin(pol)
			for _, d := range reg.Detectors() {
				m := d.Meta()
				sev := m.Severity
				if s, ok := pol.SeverityOverrides[m.ID]; ok {
					sev = model.ParseSeverity(s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-8s %s\n", m.ID, sev, m.Title)
			}
			return nil
		},
	}
}
