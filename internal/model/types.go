package model

import "time"

// OperationKind distinguishes how the audited source reached the pipeline.
// Generated and submitted code go through the identical analysis; the kind is
// only recorded on the ledger commitment.
type OperationKind string

const (
	OpGenerate OperationKind = "generate"
	OpScan     OperationKind = "scan"
)

func ParseOperationKind(s string) OperationKind {
	if s == string(OpGenerate) {
		return OpGenerate
	}
	return OpScan
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) Severity {
	switch s {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func SeverityGTE(a, b Severity) bool {
	return SeverityRank(a) >= SeverityRank(b)
}

// Confidence marks whether a finding follows from the restricted grammar
// directly or from a heuristic over ambiguous nesting.
type Confidence string

const (
	ConfidenceCertain   Confidence = "certain"
	ConfidenceHeuristic Confidence = "heuristic"
)

type RuleMeta struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Tags     []string `json:"tags,omitempty"`
}

// Finding is immutable once emitted by a detector. Branch is the dispatch
// branch (function-name literal) the finding refers to.
type Finding struct {
	RuleID      string     `json:"ruleId"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
	DetectorID  string     `json:"detectorId"`
	Branch      string     `json:"branch"`
	Line        int        `json:"line,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	Message     string     `json:"message"`
	Rationale   string     `json:"rationale"`
	Remediation string     `json:"remediation,omitempty"`
	References  []string   `json:"references,omitempty"`
	Fingerprint string     `json:"fingerprint"`
}

// AuditReport is immutable once composed. Findings are held in canonical
// order (severity desc, then branch asc) because that order is hashed for the
// ledger commitment. CaseID and Timestamp are presentation metadata and never
// enter the canonical encoding.
type AuditReport struct {
	ContractID string    `json:"contractId"`
	CaseID     string    `json:"caseId"`
	SourceHash string    `json:"sourceHash"`
	Findings   []Finding `json:"findings"`
	RiskScore  int       `json:"riskScore"`
	Timestamp  time.Time `json:"timestamp"`
}

type AuditRequest struct {
	ContractID string
	Source     string
	Kind       OperationKind
}
