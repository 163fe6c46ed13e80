package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/lang"
	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

func branchModel(t *testing.T, src, name string) *BranchModel {
	t.Helper()
	unit, err := lang.Parse(src)
	require.NoError(t, err)
	cm := Build(unit)
	for _, bm := range cm.Branches {
		if bm.Name == name {
			return bm
		}
	}
	t.Fatalf("no branch %q in model", name)
	return nil
}

func TestUnguardedTransfer(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "wipe_contract_funds") {
        long long contract_balance = get_contract_balance();
        send_funds(in.sender, contract_balance);
        out.success = true;
    }
    return out;
}
`
	bm := branchModel(t, src, "wipe_contract_funds")
	require.Len(t, bm.Privileged, 1)
	pc := bm.Privileged[0]
	require.Equal(t, lang.PrimFundTransfer, pc.Kind)
	require.False(t, pc.Guarded)
	require.Equal(t, model.ConfidenceCertain, pc.Confidence)

	require.Len(t, bm.Ordering, 2)
	require.Equal(t, EventBalanceRead, bm.Ordering[0].Kind)
	require.Equal(t, EventExternal, bm.Ordering[1].Kind)
}

func TestAuthDominatesThenArm(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (is_owner(in.sender)) {
            send_funds(in.sender, 100);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceCertain, bm.Privileged[0].Confidence)
}

func TestGuardClauseContinuation(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (!is_owner(in.sender)) {
            out.success = false;
            return out;
        }
        send_funds(in.sender, 100);
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceCertain, bm.Privileged[0].Confidence)
}

func TestNegatedAuthGuardsElseArm(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (!is_owner(in.sender)) {
            out.success = false;
        } else {
            send_funds(in.sender, 100);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
}

func TestConjoinedAuthGuardsThenArm(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (is_owner(in.sender) && in.amount > 0) {
            send_funds(in.sender, in.amount);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceCertain, bm.Privileged[0].Confidence)
}

func TestCompoundNegatedGuardClauseDoesNotDominate(t *testing.T) {
	// the condition being false only means one conjunct failed; a caller
	// with amount == 0 reaches the transfer unchecked
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (!is_owner(in.sender) && in.amount > 0) {
            out.success = false;
            return out;
        }
        send_funds(in.sender, in.amount);
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.False(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceHeuristic, bm.Privileged[0].Confidence)
	require.NotEmpty(t, bm.Warnings)
}

func TestCompoundNegatedElseArmIsNotGuarded(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (!is_owner(in.sender) && in.amount > 0) {
            out.success = false;
        } else {
            send_funds(in.sender, in.amount);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.False(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceHeuristic, bm.Privileged[0].Confidence)
}

func TestNegatedAuthDisjunctionGuardClause(t *testing.T) {
	// `!auth || other` false means both disjuncts are false, so the
	// fall-through path has passed the check; this is the AND-combined
	// guard in negated form
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (!is_owner(in.sender) || in.paused == 1) {
            out.success = false;
            return out;
        }
        send_funds(in.sender, 100);
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceCertain, bm.Privileged[0].Confidence)
}

func TestAuthTaintThroughVariable(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        bool ok = is_owner(in.sender);
        if (ok) {
            send_funds(in.sender, 100);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.True(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceCertain, bm.Privileged[0].Confidence)
}

func TestOrCombinedAuthIsAmbiguous(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (is_owner(in.sender) || in.amount == 0) {
            send_funds(in.sender, 100);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "sweep")
	require.Len(t, bm.Privileged, 1)
	require.False(t, bm.Privileged[0].Guarded)
	require.Equal(t, model.ConfidenceHeuristic, bm.Privileged[0].Confidence)
	require.NotEmpty(t, bm.Warnings)
}

func TestCallerKeyedReadGatesHeuristically(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "vote") {
        bool has_voted = load_bool_state(in.sender);
        if (!has_voted) {
            long long current_votes = load_long_long_state("proposal_votes");
            save_long_long_state("proposal_votes", current_votes + 1);
            save_bool_state(in.sender, true);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "vote")
	require.Len(t, bm.Privileged, 2)
	for _, pc := range bm.Privileged {
		require.True(t, pc.Guarded)
		require.Equal(t, model.ConfidenceHeuristic, pc.Confidence)
	}
	require.Len(t, bm.Arith, 1)
	require.False(t, bm.Arith[0].Guarded)
	require.False(t, bm.Arith[0].LiteralOnly)
}

func TestBoundsComparisonGuardsArithmetic(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "tally") {
        long long votes = load_long_long_state("v");
        if (votes < 1000) {
            save_long_long_state("v", votes + 1);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "tally")
	require.Len(t, bm.Arith, 1)
	require.True(t, bm.Arith[0].Guarded)
}

func TestArithmeticInsideComparisonIsGuarded(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "deposit") {
        long long balance = load_long_long_state("balance");
        if (balance + in.amount < 1000000) {
            save_long_long_state("balance", balance + in.amount);
        }
    }
    return out;
}
`
	bm := branchModel(t, src, "deposit")
	require.Len(t, bm.Arith, 2)
	for _, op := range bm.Arith {
		require.True(t, op.Guarded, "op %q at line %d", op.Text, op.Line)
	}
}

func TestLiteralOnlyArithmetic(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "seed") {
        save_long_long_state("v", 2 + 3);
    }
    return out;
}
`
	bm := branchModel(t, src, "seed")
	require.Len(t, bm.Arith, 1)
	require.True(t, bm.Arith[0].LiteralOnly)
}

func TestCheckedArithmeticPrimitiveIsNotAnOperator(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "tally") {
        long long v = load_long_long_state("v");
        save_long_long_state("v", checked_add(v, 1));
    }
    return out;
}
`
	bm := branchModel(t, src, "tally")
	require.Empty(t, bm.Arith)
}

func TestOrderingTransferBeforeWrite(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "withdraw") {
        send_funds(in.sender, 100);
        save_long_long_state("balance", 0);
    }
    return out;
}
`
	bm := branchModel(t, src, "withdraw")
	require.Len(t, bm.Ordering, 2)
	require.Equal(t, EventExternal, bm.Ordering[0].Kind)
	require.Equal(t, EventStateWrite, bm.Ordering[1].Kind)
	require.Equal(t, "balance", bm.Ordering[1].StateKey)
}

func TestBuildEmptyUnit(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    return out;
}
`
	unit, err := lang.Parse(src)
	require.NoError(t, err)
	cm := Build(unit)
	require.Empty(t, cm.Branches)
}
