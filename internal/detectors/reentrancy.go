package detectors

import (
	"context"
	"fmt"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/util"
)

// reentrancy flags branches that perform an external effect (fund transfer or
// external call) and only afterwards write state, violating
// checks-effects-interactions. A transfer with no subsequent write leaves no
// reentrant window and is not flagged.
type reentrancy struct{}

func (d *reentrancy) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "QBC-REENTRANCY",
		Title:    "State written after external effect",
		Severity: model.SeverityHigh,
		Tags:     []string{"reentrancy", "ordering"},
	}
}

func (d *reentrancy) Analyze(ctx context.Context, cm *analysis.ContractModel) ([]model.Finding, error) {
	var findings []model.Finding
	for _, bm := range cm.Branches {
		ext, write, ok := firstViolation(bm.Ordering)
		if !ok {
			continue
		}
		findings = append(findings, model.Finding{
			RuleID:      d.Meta().ID,
			Severity:    d.Meta().Severity,
			Confidence:  model.ConfidenceCertain,
			DetectorID:  "reentrancy",
			Branch:      bm.Name,
			Line:        ext.Line,
			Snippet:     util.ExtractSnippet(cm.Unit.Source, ext.Line, 4),
			Message:     "External effect precedes state update",
			Rationale:   fmt.Sprintf("branch %q calls %s before writing state via %s; the write should precede the external effect", bm.Name, ext.Name, write.Name),
			Remediation: "Update state before the external call (checks-effects-interactions).",
			Fingerprint: util.Fingerprint(d.Meta().ID, bm.Name, ext.Line, ext.Name),
		})
	}
	return findings, nil
}

// firstViolation finds the earliest external event followed by a later state
// write in the same branch.
func firstViolation(events []analysis.CallEvent) (ext, write analysis.CallEvent, ok bool) {
	for i, ev := range events {
		if ev.Kind != analysis.EventExternal {
			continue
		}
		for _, later := range events[i+1:] {
			if later.Kind == analysis.EventStateWrite {
				return ev, later, true
			}
		}
	}
	return analysis.CallEvent{}, analysis.CallEvent{}, false
}
