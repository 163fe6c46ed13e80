package collab

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/report"
)

type upperTranslator struct{}

func (upperTranslator) Translate(ctx context.Context, text, langCode string) (string, error) {
	return strings.ToUpper(text), nil
}

func TestTranslateReportIsPresentationOnly(t *testing.T) {
	orig := &model.AuditReport{
		ContractID: "c1",
		Findings: []model.Finding{{
			RuleID:    "QBC-ACCESS-CONTROL",
			Severity:  model.SeverityCritical,
			Branch:    "sweep",
			Message:   "privileged call reachable",
			Rationale: "no auth check dominates",
		}},
		RiskScore: 10,
	}
	before := report.Hash(orig)

	translated, err := TranslateReport(context.Background(), upperTranslator{}, orig, "es")
	require.NoError(t, err)

	require.Equal(t, "NO AUTH CHECK DOMINATES", translated.Findings[0].Rationale)
	require.Equal(t, "PRIVILEGED CALL REACHABLE", translated.Findings[0].Message)
	require.Equal(t, "QBC-ACCESS-CONTROL", translated.Findings[0].RuleID)
	require.Equal(t, model.SeverityCritical, translated.Findings[0].Severity)

	require.Equal(t, "no auth check dominates", orig.Findings[0].Rationale)
	require.Equal(t, before, report.Hash(orig), "original commitment hash must not move")
}

func TestNoOpTranslatorIsIdentity(t *testing.T) {
	out, err := NewNoOpTranslator().Translate(context.Background(), "texto", "es")
	require.NoError(t, err)
	require.Equal(t, "texto", out)
}

func TestNoOpGeneratorRefuses(t *testing.T) {
	_, err := NewNoOpGenerator().Generate(context.Background(), "a token contract")
	require.ErrorIs(t, err, ErrNoGenerator)
}
