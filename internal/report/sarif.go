package report

import (
	"encoding/json"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

type sarif struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}
type sarifDriver struct {
	Name string `json:"name"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}
type sarifLoc struct {
	Logical  []sarifLogical `json:"logicalLocations"`
	Physical sarifPhys      `json:"physicalLocation"`
}
type sarifLogical struct {
	Name string `json:"name"` // dispatch branch
	Kind string `json:"kind"`
}
type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}
type sarifArt struct {
	URI string `json:"uri"`
}
type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// ToSARIF exports an audit report for code-scanning consumers. Purely a
// presentation format; the commitment hash never covers it.
func ToSARIF(r *model.AuditReport) ([]byte, error) {
	var results []sarifResult
	for _, f := range r.Findings {
		level := "note"
		switch f.Severity {
		case model.SeverityMedium:
			level = "warning"
		case model.SeverityHigh, model.SeverityCritical:
			level = "error"
		}
		results = append(results, sarifResult{
			RuleID:  f.RuleID,
			Level:   level,
			Message: sarifMessage{Text: f.Message},
			Locations: []sarifLoc{{
				Logical: []sarifLogical{{Name: f.Branch, Kind: "function"}},
				Physical: sarifPhys{
					ArtifactLocation: sarifArt{URI: r.ContractID},
					Region:           sarifRegion{StartLine: f.Line},
				},
			}},
		})
	}
	s := sarif{Version: "2.1.0", Runs: []sarifRun{{Tool: sarifTool{Driver: sarifDriver{Name: "qgen"}}, Results: results}}}
	return json.MarshalIndent(s, "", "  ")
}
