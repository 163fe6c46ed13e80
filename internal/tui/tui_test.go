package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

func testReport() *model.AuditReport {
	return &model.AuditReport{
		ContractID: "c1",
		RiskScore:  15,
		Findings: []model.Finding{
			{RuleID: "QBC-ACCESS-CONTROL", Severity: model.SeverityCritical, Branch: "sweep", Rationale: "first"},
			{RuleID: "QBC-REENTRANCY", Severity: model.SeverityHigh, Branch: "withdraw", Rationale: "second"},
		},
	}
}

func TestCursorNavigation(t *testing.T) {
	m := initialModel(testReport())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(modelT)
	require.Equal(t, 1, m.cursor)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(modelT)
	require.Equal(t, 1, m.cursor, "cursor stops at the last finding")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = next.(modelT)
	require.Equal(t, 0, m.cursor)
}

func TestQuitKeys(t *testing.T) {
	m := initialModel(testReport())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
}

func TestViewShowsSelection(t *testing.T) {
	m := initialModel(testReport())
	out := m.View()
	require.Contains(t, out, "c1")
	require.Contains(t, out, "QBC-ACCESS-CONTROL")
	require.Contains(t, out, "first")
	require.Contains(t, out, "> QBC-ACCESS-CONTROL")
}
