// Package alkerrors defines the error taxonomy shared by the codec, wallet
// and execution layers. Every error raised by core/* carries a Kind so a
// caller can branch on it with errors.As instead of string matching.
package alkerrors

import "fmt"

// Kind classifies an error without tying callers to its exact message.
type Kind string

const (
	// Validation marks an input that violated a wire-level or spec
	// invariant (forward-only protostone refs, out-of-range vout, dust).
	Validation Kind = "validation"
	// Wallet marks a funding/address problem: insufficient funds, a
	// missing prevout, an address that failed to parse.
	Wallet Kind = "wallet"
	// VarintTooLarge marks a LEB128 group sequence whose cumulative shift
	// exceeds the 128-bit capacity of the value being decoded.
	VarintTooLarge Kind = "varint_too_large"
	// VarintTruncated marks a LEB128 sequence that ended mid-group.
	VarintTruncated Kind = "varint_truncated"
	// FrameMalformed marks a non-push opcode inside a runestone payload.
	FrameMalformed Kind = "frame_malformed"
	// Transaction marks a signing, sighash, or taproot construction
	// failure.
	Transaction Kind = "transaction"
	// RpcFailure marks a provider call failure. Callers MAY retry.
	RpcFailure Kind = "rpc_failure"
	// IncompleteDeployment marks an envelope present without a cellpack.
	IncompleteDeployment Kind = "incomplete_deployment"
	// NoOperation marks a request with nothing to execute: protostones
	// without an envelope or cellpack, or a commit-reveal with no bytecode.
	NoOperation Kind = "no_operation"
	// AbsurdFee marks an estimated fee that exceeded MAX_FEE_SATS before
	// capping.
	AbsurdFee Kind = "absurd_fee"
	// BurnedFunds is a warning-level kind: pointer resolution found no
	// transparent sink, so the balance is destined to burn.
	BurnedFunds Kind = "burned_funds"
	// CappedBelowMin is a warning-level kind: the fee cap at MAX_FEE_SATS
	// left the transaction below the estimated minimum relay fee.
	CappedBelowMin Kind = "capped_below_min"
)

// Error is the concrete error type every core/* package returns. It wraps an
// optional underlying error and tags it with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &alkerrors.Error{Kind: alkerrors.Validation})
// style comparisons: a target *Error matches when its Kind is equal; its
// message is ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind, preserving err for errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind of err if it is, or wraps, an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if as(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// as is a tiny indirection over errors.As kept local to avoid importing
// errors twice at call sites that only need KindOf.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
