package dispatch

import (
	"errors"
	"fmt"

	"github.com/jacentio/itemstore/store"
)

// Code tags a failure outcome.
type Code string

const (
	// CodeUnknownOperation means the operation name resolved to no handler.
	CodeUnknownOperation Code = "UnknownOperation"

	// CodeInvalidArgument means a required field was missing or malformed.
	CodeInvalidArgument Code = "InvalidArgument"

	// CodeNotFound means the lookup, update or delete target is absent.
	CodeNotFound Code = "NotFound"

	// CodeAlreadyExists means a create collided with an existing id.
	CodeAlreadyExists Code = "AlreadyExists"

	// CodeStoreError means the underlying persistence call failed.
	CodeStoreError Code = "StoreError"
)

// Failure describes a non-success outcome.
type Failure struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result is the uniform envelope every operation resolves to: exactly one
// of Data or Error is set. NotFound and AlreadyExists are expected outcomes
// and travel through the same channel as success.
type Result struct {
	Data  any      `json:"data,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

func ok(data any) Result {
	return Result{Data: data}
}

func fail(code Code, message string) Result {
	return Result{Error: &Failure{Code: code, Message: message}}
}

func failf(code Code, format string, args ...any) Result {
	return fail(code, fmt.Sprintf(format, args...))
}

// normalize maps a store outcome to its failure code.
func normalize(err error) Result {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(CodeNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return fail(CodeAlreadyExists, err.Error())
	default:
		return fail(CodeStoreError, err.Error())
	}
}
