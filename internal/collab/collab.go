// Package collab declares the boundary contracts with the excluded
// collaborators: the generative model that emits contract source and the
// translation service for report text. The engine depends only on these
// interfaces; generated code is audited through the exact same pipeline as
// submitted code, with no privileged bypass.
package collab

import (
	"context"
	"errors"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

var ErrNoGenerator = errors.New("collab: no generator configured")

// Generator produces contract source text from a natural-language prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Translator renders human-readable text into a target language (ISO 639-1
// code). It is only ever given rationale strings; nothing it returns enters
// canonicalization or hashing.
type Translator interface {
	Translate(ctx context.Context, text, langCode string) (string, error)
}

type noopGenerator struct{}

func (noopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrNoGenerator
}

func NewNoOpGenerator() Generator { return noopGenerator{} }

type noopTranslator struct{}

func (noopTranslator) Translate(ctx context.Context, text, langCode string) (string, error) {
	return text, nil
}

func NewNoOpTranslator() Translator { return noopTranslator{} }

// TranslateReport returns a presentation copy of the report with rationale
// and message text translated. The input report is not touched: rule ids,
// severities, branches, and every hashed field stay as composed, and the
// commitment hash is always taken from the untranslated original.
func TranslateReport(ctx context.Context, tr Translator, r *model.AuditReport, langCode string) (*model.AuditReport, error) {
	out := *r
	out.Findings = make([]model.Finding, len(r.Findings))
	copy(out.Findings, r.Findings)
	for i := range out.Findings {
		rationale, err := tr.Translate(ctx, out.Findings[i].Rationale, langCode)
		if err != nil {
			return nil, err
		}
		msg, err := tr.Translate(ctx, out.Findings[i].Message, langCode)
		if err != nil {
			return nil, err
		}
		out.Findings[i].Rationale = rationale
		out.Findings[i].Message = msg
	}
	return &out, nil
}
