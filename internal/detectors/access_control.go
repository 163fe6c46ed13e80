package detectors

import (
	"context"
	"fmt"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/util"
)

// accessControl flags privileged primitive calls (fund transfers, writes to
// sensitive state keys) that no authorization check dominates.
type accessControl struct {
	sensitiveKeys map[string]bool
}

func (d *accessControl) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "QBC-ACCESS-CONTROL",
		Title:    "Privileged call without dominating authorization check",
		Severity: model.SeverityCritical,
		Tags:     []string{"access-control"},
	}
}

func (d *accessControl) Analyze(ctx context.Context, cm *analysis.ContractModel) ([]model.Finding, error) {
	var findings []model.Finding
	for _, bm := range cm.Branches {
		drains := drainsBalance(bm)
		for _, pc := range bm.Privileged {
			if pc.Guarded || !d.privileged(pc) {
				continue
			}
			rationale := fmt.Sprintf("branch %q calls %s with no authorization check on any path before it", bm.Name, pc.Call.Name)
			if pc.Kind == lang.PrimFundTransfer && drains {
				rationale = fmt.Sprintf("branch %q reads the contract balance and transfers it via %s with no authorization check on any path before it", bm.Name, pc.Call.Name)
			}
			findings = append(findings, model.Finding{
				RuleID:      d.Meta().ID,
				Severity:    d.Meta().Severity,
				Confidence:  pc.Confidence,
				DetectorID:  "access-control",
				Branch:      bm.Name,
				Line:        pc.Line,
				Snippet:     util.ExtractSnippet(cm.Unit.Source, pc.Line, 4),
				Message:     "Privileged call reachable by any caller",
				Rationale:   rationale,
				Remediation: "Gate the call behind an authorization primitive such as is_owner(in.sender).",
				Fingerprint: util.Fingerprint(d.Meta().ID, bm.Name, pc.Line, pc.Call.Name),
			})
		}
	}
	return findings, nil
}

// privileged: fund transfers always; state writes only when the key is
// policy-sensitive. External calls are reentrancy territory, not access
// control.
func (d *accessControl) privileged(pc analysis.PrivilegedCall) bool {
	switch pc.Kind {
	case lang.PrimFundTransfer:
		return true
	case lang.PrimStateWrite:
		return d.sensitiveKeys[pc.StateKey]
	}
	return false
}

// drainsBalance reports the balance-read-then-transfer pattern in the
// branch's event ordering.
func drainsBalance(bm *analysis.BranchModel) bool {
	seenRead := false
	for _, ev := range bm.Ordering {
		switch ev.Kind {
		case analysis.EventBalanceRead:
			seenRead = true
		case analysis.EventExternal:
			if seenRead && ev.Prim == lang.PrimFundTransfer {
				return true
			}
		}
	}
	return false
}
