package lang

// PrimitiveKind classifies the closed, extensible set of named primitives the
// dialect exposes to contracts. Unknown identifiers used as calls are kept as
// PrimUnknown so the analysis degrades instead of failing the parse.
type PrimitiveKind string

const (
	PrimAuthCheck    PrimitiveKind = "authorization-check"
	PrimStateRead    PrimitiveKind = "state-read"
	PrimStateWrite   PrimitiveKind = "state-write"
	PrimFundTransfer PrimitiveKind = "fund-transfer"
	PrimExternalCall PrimitiveKind = "external-call"
	PrimCheckedArith PrimitiveKind = "checked-arithmetic"
	PrimBalanceQuery PrimitiveKind = "balance-query"
	PrimParamAccess  PrimitiveKind = "param-accessor"
	PrimReturnSetter PrimitiveKind = "return-setter"
	PrimUnknown      PrimitiveKind = "unknown"
)

var primitiveKinds = map[string]PrimitiveKind{
	"is_owner":      PrimAuthCheck,
	"is_authorized": PrimAuthCheck,
	"is_admin":      PrimAuthCheck,
	"require_owner": PrimAuthCheck,

	"load_bool_state":      PrimStateRead,
	"load_long_long_state": PrimStateRead,
	"load_string_state":    PrimStateRead,

	"save_bool_state":      PrimStateWrite,
	"save_long_long_state": PrimStateWrite,
	"save_string_state":    PrimStateWrite,

	"send_funds":     PrimFundTransfer,
	"transfer_funds": PrimFundTransfer,

	"call_contract":   PrimExternalCall,
	"invoke_contract": PrimExternalCall,

	"checked_add": PrimCheckedArith,
	"checked_sub": PrimCheckedArith,
	"checked_mul": PrimCheckedArith,

	"get_contract_balance": PrimBalanceQuery,

	"get_string_from_params":    PrimParamAccess,
	"get_long_long_from_params": PrimParamAccess,
	"get_bool_from_params":      PrimParamAccess,

	"set_string_return":    PrimReturnSetter,
	"set_long_long_return": PrimReturnSetter,
	"set_bool_return":      PrimReturnSetter,
}

// Classify maps a called identifier to its primitive kind. extraAuth lets
// policy declare additional authorization-check primitives without touching
// this table.
func Classify(name string, extraAuth map[string]bool) PrimitiveKind {
	if extraAuth[name] {
		return PrimAuthCheck
	}
	if k, ok := primitiveKinds[name]; ok {
		return k
	}
	return PrimUnknown
}

// StateKey extracts the state key a read/write primitive addresses: a string
// literal key, or the identifier text for caller-keyed access like
// `load_bool_state(in.sender)`. Empty when the call has no arguments.
func StateKey(call *CallExpr) string {
	if len(call.Args) == 0 {
		return ""
	}
	switch a := call.Args[0].(type) {
	case *StringLit:
		return a.Value
	case *Ident:
		return a.Name
	}
	return ""
}

// CallerKeyed reports whether a state access is keyed by the transaction
// sender, the `load_bool_state(in.sender)` voting idiom.
func CallerKeyed(call *CallExpr) bool {
	if len(call.Args) == 0 {
		return false
	}
	id, ok := call.Args[0].(*Ident)
	return ok && id.Name == "in.sender"
}
