// Package analysis walks a parsed ContractUnit into per-branch facts the
// detectors consume: authorization dominance, arithmetic guards, and the
// ordering of state writes against external effects. It is a tree-shaped
// check over the restricted grammar, not a general control-flow solver.
package analysis

import (
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

type ContractModel struct {
	Unit     *lang.ContractUnit
	Branches []*BranchModel
}

// BranchModel carries the derived facts for one dispatch arm.
type BranchModel struct {
	Name       string
	Branch     *lang.FunctionBranch
	Privileged []PrivilegedCall
	Arith      []ArithmeticOp
	Ordering   []CallEvent
	Warnings   []string
}

// PrivilegedCall is the authorization fact for one privileged primitive call:
// whether an authorization check dominates it on every path from branch
// entry. Caller-keyed state gates (the voting idiom) count as guards at
// heuristic confidence.
type PrivilegedCall struct {
	Call       *lang.CallExpr
	Kind       lang.PrimitiveKind
	StateKey   string
	Line       int
	Guarded    bool
	Confidence model.Confidence
}

// ArithmeticOp is a fixed-width arithmetic expression and whether a bounds
// comparison on one of its operands dominates it. Checked-arithmetic
// primitives are calls, not operators, so they never show up here.
type ArithmeticOp struct {
	Op          string
	Line        int
	Text        string
	LiteralOnly bool
	Guarded     bool
}

type EventKind string

const (
	EventStateWrite  EventKind = "state-write"
	EventBalanceRead EventKind = "balance-read"
	EventExternal    EventKind = "external" // fund transfer or external call
)

// CallEvent is one entry of a branch's checks-effects-interactions ordering,
// in source order (conditions first, then-arm before else-arm).
type CallEvent struct {
	Kind     EventKind
	Prim     lang.PrimitiveKind
	Name     string
	StateKey string
	Line     int
}

// Build derives the per-branch analysis model. It never fails: malformed
// constructs were already rejected by the parser and anything ambiguous
// degrades to heuristic confidence.
func Build(unit *lang.ContractUnit) *ContractModel {
	cm := &ContractModel{Unit: unit}
	for _, br := range unit.Branches {
		cm.Branches = append(cm.Branches, buildBranch(br))
	}
	return cm
}

func buildBranch(br *lang.FunctionBranch) *BranchModel {
	bm := &BranchModel{Name: br.Name, Branch: br}
	w := &walker{bm: bm, taints: map[string]taint{}}
	w.walk(br.Body, guardState{bounds: map[string]bool{}})
	return bm
}
