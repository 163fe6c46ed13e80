// Package config holds the audit policy: detector severity overrides, risk
// weights, sensitive state keys, and ignore rules. Policy is data so that
// changing it never requires recompiling detector logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

const FileName = ".qgen-policy.yaml"

type IgnoreRule struct {
	Rule    string `yaml:"rule"`
	Branch  string `yaml:"branch,omitempty"` // empty matches any branch
	Reason  string `yaml:"reason,omitempty"`
	Expires string `yaml:"expires,omitempty"` // RFC3339; empty never expires
}

// Expired reports whether the rule's expiry has passed at now.
func (r IgnoreRule) Expired(now time.Time) bool {
	if r.Expires == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, r.Expires)
	if err != nil {
		return false
	}
	return now.After(t)
}

type Policy struct {
	MinSeverity        string            `yaml:"minSeverity"`
	RiskWeights        map[string]int    `yaml:"riskWeights"`
	SeverityOverrides  map[string]string `yaml:"severityOverrides,omitempty"` // rule id -> severity
	SensitiveStateKeys []string          `yaml:"sensitiveStateKeys"`
	AuthPrimitives     []string          `yaml:"authPrimitives,omitempty"` // extra auth-check primitive names
	Ignore             []IgnoreRule      `yaml:"ignore,omitempty"`
}

func Default() Policy {
	return Policy{
		MinSeverity: string(model.SeverityLow),
		RiskWeights: map[string]int{
			string(model.SeverityCritical): 10,
			string(model.SeverityHigh):     5,
			string(model.SeverityMedium):   2,
			string(model.SeverityLow):      1,
		},
		SensitiveStateKeys: []string{"owner", "contract_owner", "admin", "paused", "total_supply"},
	}
}

// WeightFor falls back to the default table for severities the policy file
// does not mention.
func (p Policy) WeightFor(sev model.Severity) int {
	if w, ok := p.RiskWeights[string(sev)]; ok {
		return w
	}
	return Default().RiskWeights[string(sev)]
}

// Load searches upward from startDir for a policy file, mirroring how repo
// config is usually resolved. Returns the default policy when none exists.
func Load(startDir string) (Policy, string, error) {
	p := Default()
	dir := startDir
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			b, err := os.ReadFile(candidate)
			if err != nil {
				return p, candidate, err
			}
			if err := yaml.Unmarshal(b, &p); err != nil {
				return p, candidate, fmt.Errorf("policy %s: %w", candidate, err)
			}
			return p, candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return p, "", nil
}

func (p Policy) Save(path string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
