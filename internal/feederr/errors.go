// =============================================================================
// Bartscher Feed Generator - Error Kinds
// =============================================================================
//
// Every failure the pipeline can produce is classified into one of a small
// number of kinds. The kind decides the process exit status:
//
//   | Kind    | Meaning                                              | Exit |
//   |---------|------------------------------------------------------|------|
//   | network | remote fetch unreachable or non-success HTTP status  | 1    |
//   | schema  | expected columns absent in spreadsheet or feed       | 2    |
//   | parse   | a cell or feed value cannot be converted             | 2    |
//   | config  | invalid configuration or command-line usage          | 3    |
//
// Unclassified errors exit with 1.
//
// =============================================================================

package feederr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindNetwork Kind = "network"
	KindSchema  Kind = "schema"
	KindParse   Kind = "parse"
	KindConfig  Kind = "config"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitNetwork = 1
	ExitParse   = 2
	ExitConfig  = 3
)

// Error is a classified pipeline error.
type Error struct {
	// Kind is the error classification.
	Kind Kind

	// Op names the operation that failed, e.g. "fetch availability".
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Network returns a KindNetwork error.
func Network(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// Schema returns a KindSchema error.
func Schema(op string, err error) error {
	return &Error{Kind: KindSchema, Op: op, Err: err}
}

// Parse returns a KindParse error.
func Parse(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// Config returns a KindConfig error.
func Config(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// Is reports whether err has the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var fe *Error
	if !errors.As(err, &fe) {
		return ExitNetwork
	}

	switch fe.Kind {
	case KindSchema, KindParse:
		return ExitParse
	case KindConfig:
		return ExitConfig
	default:
		return ExitNetwork
	}
}
