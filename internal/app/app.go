package app

import (
	"github.com/spf13/cobra"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/cli"
)

func BuildRoot() *cobra.Command {
	root := &cobra.Command{Use: "qgen", Short: "Qubic contract audit engine with a tamper-evident commitment ledger"}
	cli.AddCommands(root)
	return root
}
