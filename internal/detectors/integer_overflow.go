package detectors

import (
	"context"
	"fmt"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/util"
)

// integerOverflow flags fixed-width arithmetic with neither a dominating
// bounds comparison nor a checked-arithmetic primitive. Literal-only
// operations are constant-folded by inspection and skipped.
type integerOverflow struct{}

func (d *integerOverflow) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "QBC-INTEGER-OVERFLOW",
		Title:    "Unguarded fixed-width arithmetic",
		Severity: model.SeverityHigh,
		Tags:     []string{"arithmetic"},
	}
}

func (d *integerOverflow) Analyze(ctx context.Context, cm *analysis.ContractModel) ([]model.Finding, error) {
	var findings []model.Finding
	for _, bm := range cm.Branches {
		for _, op := range bm.Arith {
			if op.LiteralOnly || op.Guarded {
				continue
			}
			findings = append(findings, model.Finding{
				RuleID:      d.Meta().ID,
				Severity:    d.Meta().Severity,
				Confidence:  model.ConfidenceCertain,
				DetectorID:  "integer-overflow",
				Branch:      bm.Name,
				Line:        op.Line,
				Snippet:     util.ExtractSnippet(cm.Unit.Source, op.Line, 4),
				Message:     "Arithmetic may wrap at fixed width",
				Rationale:   fmt.Sprintf("branch %q computes %s without a bounds comparison or checked primitive", bm.Name, op.Text),
				Remediation: "Compare operands against the representable range first, or use checked_add/checked_sub/checked_mul.",
				Fingerprint: util.Fingerprint(d.Meta().ID, bm.Name, op.Line, op.Text),
			})
		}
	}
	return findings, nil
}
