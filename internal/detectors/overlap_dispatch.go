package detectors

import (
	"context"
	"fmt"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/util"
)

// overlapDispatch flags function-name literals matched by more than one
// dispatch arm. The dialect's if-chain is not exclusive, so both arms execute
// for one call; whether that is intentional cannot be decided statically, so
// it surfaces as a low-severity structural finding instead of being merged.
type overlapDispatch struct{}

func (d *overlapDispatch) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "QBC-OVERLAP-DISPATCH",
		Title:    "Multiple dispatch arms match the same function name",
		Severity: model.SeverityLow,
		Tags:     []string{"structure"},
	}
}

func (d *overlapDispatch) Analyze(ctx context.Context, cm *analysis.ContractModel) ([]model.Finding, error) {
	var findings []model.Finding
	for _, name := range cm.Unit.Duplicates {
		line := 0
		if br := cm.Unit.Branch(name); br != nil {
			line = br.Line
		}
		findings = append(findings, model.Finding{
			RuleID:      d.Meta().ID,
			Severity:    d.Meta().Severity,
			Confidence:  model.ConfidenceCertain,
			DetectorID:  "overlap-dispatch",
			Branch:      name,
			Line:        line,
			Message:     "Duplicate dispatch arm",
			Rationale:   fmt.Sprintf("function name %q is matched by more than one dispatch arm; all matching arms execute", name),
			Remediation: "Merge the arms or rename one of the function-name literals.",
			Fingerprint: util.Fingerprint(d.Meta().ID, name, line, name),
		})
	}
	return findings, nil
}
