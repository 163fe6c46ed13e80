package lang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const drainSource = `
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

const votingSource = `
outputStruct main(inputStruct in) {
    outputStruct out;

    if (in.functionName == "startProposal") {
        char* text = get_string_from_params(in.params, 0);
        save_string_state("proposal_text", text);
        save_long_long_state("proposal_votes", 0);
        out.success = true;
    }

    if (in.functionName == "vote") {
        bool has_voted = load_bool_state(in.sender);

        if (!has_voted) {
            long long current_votes = load_long_long_state("proposal_votes");
            save_long_long_state("proposal_votes", current_votes + 1);
            save_bool_state(in.sender, true);
            out.success = true;
        } else {
            out.success = false;
        }
    }

    if (in.functionName == "getProposal") {
        char* text = load_string_state("proposal_text");
        long long votes = load_long_long_state("proposal_votes");
        set_string_return(text);
        set_long_long_return(votes);
        out.success = true;
    }

    return out;
}
`

func callKinds(body []Statement) map[string]PrimitiveKind {
	kinds := map[string]PrimitiveKind{}
	WalkCalls(body, func(c *CallExpr) { kinds[c.Name] = c.Prim })
	return kinds
}

func TestParseDrainContract(t *testing.T) {
	unit, err := Parse(drainSource)
	require.NoError(t, err)
	require.Len(t, unit.Branches, 1)

	br := unit.Branches[0]
	require.Equal(t, "wipe_contract_funds", br.Name)
	require.Len(t, br.Body, 3)

	kinds := callKinds(br.Body)
	require.Equal(t, PrimBalanceQuery, kinds["get_contract_balance"])
	require.Equal(t, PrimFundTransfer, kinds["send_funds"])

	decl, ok := br.Body[0].(*AssignStmt)
	require.True(t, ok)
	require.True(t, decl.Decl)
	require.Equal(t, "contract_balance", decl.Target)
}

func TestParseVotingContract(t *testing.T) {
	unit, err := Parse(votingSource)
	require.NoError(t, err)
	require.Len(t, unit.Branches, 3)
	require.Equal(t, "startProposal", unit.Branches[0].Name)
	require.Equal(t, "vote", unit.Branches[1].Name)
	require.Equal(t, "getProposal", unit.Branches[2].Name)
	require.Empty(t, unit.Duplicates)

	vote := unit.Branches[1]
	require.Contains(t, vote.StateKeys, "proposal_votes")
	require.Contains(t, vote.StateKeys, "in.sender")

	// the vote body nests a conditional with both arms
	var cond *CondStmt
	for _, st := range vote.Body {
		if c, ok := st.(*CondStmt); ok {
			cond = c
		}
	}
	require.NotNil(t, cond)
	require.NotEmpty(t, cond.Then)
	require.NotEmpty(t, cond.Else)
}

func TestParseMalformedDispatch(t *testing.T) {
	_, err := Parse("long long x;")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, MalformedDispatch, pe.Kind)
}

func TestParseUnterminatedBlock(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "x") {
        out.success = true;
    return out;
}
`
	_, err := Parse(src)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, UnterminatedBlock, pe.Kind)
}

func TestUnknownPrimitiveDegrades(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "mystery") {
        frobnicate(42);
        out.success = true;
    }
    return out;
}
`
	unit, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, unit.Branches, 1)
	kinds := callKinds(unit.Branches[0].Body)
	require.Equal(t, PrimUnknown, kinds["frobnicate"])
}

func TestDuplicateBranchNames(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "claim") {
        save_long_long_state("a", 1);
    }
    if (in.functionName == "claim") {
        save_long_long_state("b", 2);
    }
    return out;
}
`
	unit, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, unit.Branches, 2, "duplicate arms must not be merged")
	require.Equal(t, []string{"claim"}, unit.Duplicates)
}

func TestDispatchReversedOperands(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if ("ping" == in.functionName) {
        out.success = true;
    }
    return out;
}
`
	unit, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, unit.Branches, 1)
	require.Equal(t, "ping", unit.Branches[0].Name)
}

func TestExtraAuthPrimitiveOption(t *testing.T) {
	src := `
outputStruct main(inputStruct in) {
    outputStruct out;
    if (in.functionName == "sweep") {
        if (caller_is_treasurer(in.sender)) {
            send_funds(in.sender, 1);
        }
    }
    return out;
}
`
	unit, err := ParseWithOptions(src, Options{AuthPrimitives: []string{"caller_is_treasurer"}})
	require.NoError(t, err)
	kinds := callKinds(unit.Branches[0].Body)
	require.Equal(t, PrimAuthCheck, kinds["caller_is_treasurer"])

	plain, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, PrimUnknown, callKinds(plain.Branches[0].Body)["caller_is_treasurer"])
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("{")
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	require.Contains(t, pe.Error(), "unbalanced")
}
