package engine

import (
	"time"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

// applyOverrides rewrites finding severities per policy before composition,
// so policy changes never require touching detector code.
func applyOverrides(findings []model.Finding, pol config.Policy) []model.Finding {
	if len(pol.SeverityOverrides) == 0 {
		return findings
	}
	for i, f := range findings {
		if s, ok := pol.SeverityOverrides[f.RuleID]; ok {
			findings[i].Severity = model.ParseSeverity(s)
		}
	}
	return findings
}

// applyIgnores drops findings matched by a live (non-expired) ignore rule.
// Ignores are policy data, deterministic per policy file, so reports stay
// reproducible for a fixed policy.
func applyIgnores(findings []model.Finding, pol config.Policy, now time.Time) []model.Finding {
	if len(pol.Ignore) == 0 {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if !ignored(f, pol.Ignore, now) {
			out = append(out, f)
		}
	}
	return out
}

func ignored(f model.Finding, rules []config.IgnoreRule, now time.Time) bool {
	for _, r := range rules {
		if r.Expired(now) {
			continue
		}
		if r.Rule != "" && r.Rule != f.RuleID {
			continue
		}
		if r.Branch != "" && r.Branch != f.Branch {
			continue
		}
		return true
	}
	return false
}

// filterBySeverity removes findings below the configured threshold.
func filterBySeverity(findings []model.Finding, pol config.Policy) []model.Finding {
	threshold := model.ParseSeverity(pol.MinSeverity)
	if threshold == model.SeverityLow {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if model.SeverityGTE(f.Severity, threshold) {
			out = append(out, f)
		}
	}
	return out
}
