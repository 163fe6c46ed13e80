// Package report composes detector findings into a deterministic, hashable
// audit report. The canonical ordering and encoding are load-bearing: the
// ledger commits to the hash of the canonical form, so two runs over the same
// source must produce byte-identical bytes.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

// canonicalVersion tags the encoding so a future format change cannot be
// confused with tampering.
const canonicalVersion = "qgen.report.v1"

// WeightFunc maps a severity to its risk-score weight.
type WeightFunc func(model.Severity) int

// Compose orders findings canonically and computes the risk score. The
// returned report is treated as immutable from here on.
func Compose(contractID, caseID, sourceHash string, findings []model.Finding, weight WeightFunc) *model.AuditReport {
	ordered := make([]model.Finding, len(findings))
	copy(ordered, findings)
	SortCanonical(ordered)

	score := 0
	for _, f := range ordered {
		score += weight(f.Severity)
	}
	if score > 100 {
		score = 100
	}

	return &model.AuditReport{
		ContractID: contractID,
		CaseID:     caseID,
		SourceHash: sourceHash,
		Findings:   ordered,
		RiskScore:  score,
		Timestamp:  time.Now().UTC().Truncate(time.Second),
	}
}

// SortCanonical sorts severity desc, then branch asc, then rule id and
// rationale as final tie-breakers so insertion order from the detectors can
// never leak into the hash.
func SortCanonical(fs []model.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if ra, rb := model.SeverityRank(a.Severity), model.SeverityRank(b.Severity); ra != rb {
			return ra > rb
		}
		if a.Branch != b.Branch {
			return a.Branch < b.Branch
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Rationale < b.Rationale
	})
}

// CanonicalEncoding renders the hashed subset of the report: contract id,
// ordered findings, risk score. Timestamps, case ids, snippets, and anything
// translatable-by-presentation stay out. Field values are escaped so the
// pipe-delimited form is unambiguous.
func CanonicalEncoding(r *model.AuditReport) []byte {
	var b strings.Builder
	b.WriteString(canonicalVersion)
	b.WriteByte('\n')
	b.WriteString("contract|")
	b.WriteString(escape(r.ContractID))
	b.WriteByte('\n')
	for _, f := range r.Findings {
		b.WriteString("finding|")
		b.WriteString(escape(f.RuleID))
		b.WriteByte('|')
		b.WriteString(string(f.Severity))
		b.WriteByte('|')
		b.WriteString(escape(f.Branch))
		b.WriteByte('|')
		b.WriteString(escape(f.Rationale))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "risk|%d\n", r.RiskScore)
	return []byte(b.String())
}

// Hash is the report's commitment pre-image digest.
func Hash(r *model.AuditReport) string {
	sum := sha256.Sum256(CanonicalEncoding(r))
	return hex.EncodeToString(sum[:])
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
