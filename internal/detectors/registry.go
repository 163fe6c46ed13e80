// Package detectors holds the vulnerability rules. Each detector is a pure
// function over the analysis model; detectors run independently and their
// findings are unioned, so one rule can never suppress another.
package detectors

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/analysis"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/config"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

type Detector interface {
	Meta() model.RuleMeta
	Analyze(ctx context.Context, cm *analysis.ContractModel) ([]model.Finding, error)
}

type Registry struct {
	detectors []Detector
	log       *zap.Logger
}

func NewRegistry() *Registry { return &Registry{log: zap.NewNop()} }

func (r *Registry) SetLogger(log *zap.Logger) {
	if log != nil {
		r.log = log
	}
}

func (r *Registry) Register(d Detector) { r.detectors = append(r.detectors, d) }

func (r *Registry) RegisterBuiltin(pol config.Policy) {
	r.Register(&accessControl{sensitiveKeys: sensitiveKeySet(pol)})
	r.Register(&integerOverflow{})
	r.Register(&reentrancy{})
	r.Register(&overlapDispatch{})
}

func (r *Registry) Detectors() []Detector { return r.detectors }

// Run executes all detectors against one contract model, concurrently behind
// a small semaphore, and unions their findings. A detector error drops only
// that detector's output and is logged; an empty model yields an empty list,
// never an error.
func (r *Registry) Run(ctx context.Context, cm *analysis.ContractModel) []model.Finding {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		cpu = 2
	}
	type res struct{ fs []model.Finding }
	ch := make(chan res, len(r.detectors))
	var wg sync.WaitGroup
	sem := make(chan struct{}, cpu)
	for _, d := range r.detectors {
		d := d
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fs, err := d.Analyze(ctx, cm)
			if err != nil {
				r.log.Warn("detector failed", zap.String("rule", d.Meta().ID), zap.Error(err))
				ch <- res{}
				return
			}
			ch <- res{fs: fs}
		}()
	}
	wg.Wait()
	close(ch)
	var out []model.Finding
	for r := range ch {
		out = append(out, r.fs...)
	}
	return out
}

func sensitiveKeySet(pol config.Policy) map[string]bool {
	keys := pol.SensitiveStateKeys
	if len(keys) == 0 {
		keys = config.Default().SensitiveStateKeys
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
