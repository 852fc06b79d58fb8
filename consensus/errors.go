package consensus

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CHAIN_ERR_PRECONDITION          ErrorCode = "CHAIN_ERR_PRECONDITION"
	CHAIN_ERR_INVALID_RESIDUE_CLASS ErrorCode = "CHAIN_ERR_INVALID_RESIDUE_CLASS"
	CHAIN_ERR_FRACTIONAL_OVERFLOW   ErrorCode = "CHAIN_ERR_FRACTIONAL_OVERFLOW"
	CHAIN_ERR_LENGTH_OVERFLOW       ErrorCode = "CHAIN_ERR_LENGTH_OVERFLOW"
	CHAIN_ERR_TYPE_INVALID          ErrorCode = "CHAIN_ERR_TYPE_INVALID"

	BLOCK_ERR_PARSE              ErrorCode = "BLOCK_ERR_PARSE"
	BLOCK_ERR_POW_INVALID        ErrorCode = "BLOCK_ERR_POW_INVALID"
	BLOCK_ERR_TARGET_INVALID     ErrorCode = "BLOCK_ERR_TARGET_INVALID"
	BLOCK_ERR_MULTIPLIER_INVALID ErrorCode = "BLOCK_ERR_MULTIPLIER_INVALID"
)

type ChainError struct {
	Code ErrorCode
	Msg  string
}

func (e *ChainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func chainerr(code ErrorCode, msg string) error {
	return &ChainError{Code: code, Msg: msg}
}

func chainerrf(code ErrorCode, format string, args ...any) error {
	return &ChainError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not (and does not wrap) a *ChainError.
func CodeOf(err error) ErrorCode {
	var ce *ChainError
	if errors.As(err, &ce) && ce != nil {
		return ce.Code
	}
	return ""
}

// DiagnosticFunc receives non-fatal conditions observed while certifying a chain,
// such as a link rejected for an unexpected residue class or a clamped fractional length.
type DiagnosticFunc func(err error)

func (f DiagnosticFunc) report(err error) {
	if f != nil && err != nil {
		f(err)
	}
}
