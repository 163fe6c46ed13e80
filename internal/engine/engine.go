// Package engine wires the audit pipeline: parse, build the semantic model,
// run detectors, compose the canonical report, and commit it to the ledger.
// One pipeline instance runs per contract with no shared mutable state; the
// ledger is the single serialized resource.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/collab"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/detectors"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/ledger"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/report"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/util"
)

type Engine struct {
	registry *detectors.Registry
	ledger   *ledger.Ledger
	policy   config.Policy
	log      *zap.Logger
}

func New(led *ledger.Ledger, pol config.Policy, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	reg := detectors.NewRegistry()
	reg.SetLogger(log)
	reg.RegisterBuiltin(pol)
	return &Engine{registry: reg, ledger: led, policy: pol, log: log}
}

func (e *Engine) Registry() *detectors.Registry { return e.registry }

// AuditResult pairs the composed report with its ledger commitment. A report
// without an Entry never leaves this package: ledger failure fails the audit.
type AuditResult struct {
	Report *model.AuditReport `json:"report"`
	Entry  ledger.Entry       `json:"entry"`
}

// Audit runs the full pipeline for one contract. Parse errors are returned
// to the caller with no ledger entry produced; the caller may resubmit
// corrected source.
func (e *Engine) Audit(ctx context.Context, req model.AuditRequest) (*AuditResult, error) {
	start := time.Now()
	unit, err := lang.ParseWithOptions(req.Source, lang.Options{AuthPrimitives: e.policy.AuthPrimitives})
	if err != nil {
		return nil, err
	}
	cm := analysis.Build(unit)
	findings := e.registry.Run(ctx, cm)
	findings = applyOverrides(findings, e.policy)
	findings = applyIgnores(findings, e.policy, time.Now())
	findings = filterBySeverity(findings, e.policy)

	contractID := req.ContractID
	sourceHash := util.SHA256Hex(req.Source)
	if contractID == "" {
		contractID = "contract-" + sourceHash[:8]
	}
	rep := report.Compose(contractID, newCaseID(), sourceHash, findings, e.policy.WeightFor)
	hash := report.Hash(rep)

	entry, err := e.ledger.Append(ctx, hash, req.Kind, rep.Timestamp)
	if err != nil {
		// composed but uncommitted reports are not audits
		return nil, fmt.Errorf("commit of report %s failed: %w", hash[:8], err)
	}
	e.log.Info("audit committed",
		zap.String("contract", contractID),
		zap.String("kind", string(req.Kind)),
		zap.Int("findings", len(rep.Findings)),
		zap.Int("risk", rep.RiskScore),
		zap.Uint64("seq", entry.Seq),
		zap.String("tx", entry.TxID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &AuditResult{Report: rep, Entry: entry}, nil
}

// AuditBatch audits independent contracts in parallel. Pipelines share
// nothing; only the ledger serializes their commits.
func (e *Engine) AuditBatch(ctx context.Context, reqs []model.AuditRequest) ([]*AuditResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	out := make([]*AuditResult, len(reqs))
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := e.Audit(ctx, req)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AuditGenerated asks the generation collaborator for source and audits it
// identically to submitted code, committing with kind=generate. Returns the
// generated source alongside the result.
func (e *Engine) AuditGenerated(ctx context.Context, gen collab.Generator, prompt, contractID string) (*AuditResult, string, error) {
	src, err := gen.Generate(ctx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("generation failed: %w", err)
	}
	res, err := e.Audit(ctx, model.AuditRequest{ContractID: contractID, Source: src, Kind: model.OpGenerate})
	if err != nil {
		return nil, src, err
	}
	return res, src, nil
}

func (e *Engine) VerifyLedger(ctx context.Context) (ledger.VerificationResult, error) {
	return e.ledger.VerifyChain(ctx)
}

func newCaseID() string {
	return "QGEN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
