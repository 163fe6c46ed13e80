package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/engine"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/ledger"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/report"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/tui"
)

func AddCommands(root *cobra.Command) {
	root.AddCommand(newScanCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newInitCmd())
}

func newScanCmd() *cobra.Command {
	var (
		contractID string
		kind       string
		format     string
		outputFile string
		failOn     string
		ledgerPath string
		useTUI     bool
		budgetMs   int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "scan <contract.cpp>",
		Short: "Audit a contract source file and commit the report to the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(budgetMs)*time.Millisecond)
			defer cancel()

			pol, _, err := config.Load(".")
			if err != nil {
				return err
			}
			led, err := openLedger(ctx, ledgerPath)
			if err != nil {
				return err
			}
			eng := engine.New(led, pol, buildLogger(verbose))

			res, err := eng.Audit(ctx, model.AuditRequest{
				ContractID: contractID,
				Source:     string(src),
				Kind:       model.ParseOperationKind(kind),
			})
			if err != nil {
				var pe *lang.ParseError
				if errors.As(err, &pe) {
					return fmt.Errorf("%s is not auditable: %w", args[0], pe)
				}
				return err
			}

			if useTUI {
				return tui.Run(res.Report)
			}
			switch format {
			case "json":
				data, _ := json.MarshalIndent(res, "", "  ")
				if outputFile != "" {
					return os.WriteFile(outputFile, data, 0o644)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "sarif":
				data, err := report.ToSARIF(res.Report)
				if err != nil {
					return err
				}
				if outputFile != "" {
					return os.WriteFile(outputFile, data, 0o644)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s  risk=%d  tx=%s  seq=%d\n",
					res.Report.ContractID, res.Report.RiskScore, res.Entry.TxID, res.Entry.Seq)
				for _, f := range res.Report.Findings {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] branch=%s line=%d %s (%s)\n",
						f.RuleID, f.Severity, f.Branch, f.Line, f.Message, f.Confidence)
				}
			}

			if failOn != "" {
				threshold := model.ParseSeverity(failOn)
				for _, f := range res.Report.Findings {
					if model.SeverityGTE(f.Severity, threshold) {
						return fmt.Errorf("fail-on threshold met: %s", f.Severity)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contractID, "contract-id", "", "Identifier recorded on the report (default: derived from source hash)")
	cmd.Flags().StringVar(&kind, "kind", "scan", "Operation kind committed to the ledger: scan|generate")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table|json|sarif")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write report to file instead of stdout")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Fail if a finding of this severity or higher is present (low|medium|high|critical)")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite ledger path (default: in-memory, single run)")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Render interactive findings view")
	cmd.Flags().IntVar(&budgetMs, "budget-ms", 4500, "Time budget for the audit in milliseconds")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var ledgerPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute the ledger hash chain and report the first divergence",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerPath == "" {
				return errors.New("--ledger is required: an in-memory ledger has nothing persisted to verify")
			}
			led, err := openLedger(cmd.Context(), ledgerPath)
			if err != nil {
				return err
			}
			res, err := led.VerifyChain(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("chain invalid: first divergent sequence %d of %d entries", res.FirstDivergentSequence, res.Entries)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chain valid: %d entries\n", res.Entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite ledger path")
	return cmd
}

func openLedger(ctx context.Context, path string) (*ledger.Ledger, error) {
	var store ledger.Store
	if path == "" {
		store = ledger.NewMemoryStore()
	} else {
		gs, err := ledger.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		store = gs
	}
	return ledger.Open(ctx, store)
}

func buildLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
