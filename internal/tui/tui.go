package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

type modelT struct {
	report *model.AuditReport
	cursor int
}

func initialModel(r *model.AuditReport) modelT { return modelT{report: r} }

func (m modelT) Init() tea.Cmd { return nil }

func (m modelT) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.report.Findings)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m modelT) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  risk=%d  findings=%d\n\n", m.report.ContractID, m.report.RiskScore, len(m.report.Findings))
	for i, f := range m.report.Findings {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s [%s] %s (%s)\n", marker, f.RuleID, f.Severity, f.Branch, f.Confidence)
	}
	if len(m.report.Findings) > 0 {
		f := m.report.Findings[m.cursor]
		fmt.Fprintf(&b, "\n%s\n", f.Rationale)
	}
	b.WriteString("\nq to quit\n")
	return b.String()
}

// Run renders an audit report as a navigable findings list.
func Run(r *model.AuditReport) error {
	p := tea.NewProgram(initialModel(r))
	_, err := p.Run()
	return err
}
