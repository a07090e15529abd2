// Package retrieval assembles the domain registry, query analyzer,
// topic engine, vector and keyword retrievers, and hybrid fuser into
// the single public retrieval entry point.
package retrieval

import (
	"fmt"
	"time"
)

// Error is the typed error returned by the retrieval core, carrying
// the failing component and operation alongside the error kind.
type Error struct {
	Kind      string // one of the Kind* constants below
	Component string
	Operation string
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s/%s] %s: %s", e.Component, e.Operation, e.Kind, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Error kinds reported by the retrieval core.
const (
	KindUnknownDomain              = "UnknownDomain"
	KindEmbeddingDimensionMismatch = "EmbeddingDimensionMismatch"
	KindStoreError                 = "StoreError"
	KindEmptyCorpus                = "EmptyCorpus"
	KindTopicLoadError             = "TopicLoadError"
	KindInvalidFilter              = "InvalidFilter"
	KindEmptyQuery                 = "EmptyQuery"
)

func newError(kind, component, operation, message string, err error) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NewEmbeddingDimensionMismatchError reports a vector-store/embedding-model
// dimension disagreement. Surfaced with both values; never silently
// corrected.
func NewEmbeddingDimensionMismatchError(expected, got int) *Error {
	return newError(KindEmbeddingDimensionMismatch, "retrieval", "Retrieve",
		fmt.Sprintf("expected dimension %d, got %d", expected, got), nil)
}

// NewStoreError wraps an underlying vector-store failure.
func NewStoreError(operation string, err error) *Error {
	return newError(KindStoreError, "vectorstore", operation, "vector store operation failed", err)
}

// NewTopicLoadError reports a missing or malformed topic-definitions
// resource. Fatal at construction time.
func NewTopicLoadError(domainName string, err error) *Error {
	return newError(KindTopicLoadError, "topic", "LoadYAML",
		fmt.Sprintf("domain %q topic definitions", domainName), err)
}

// NewInvalidFilterError reports a rejected filter term, such as a
// `state` value the profile does not recognize. Raised eagerly, before
// any store call.
func NewInvalidFilterError(comparator string) *Error {
	return newError(KindInvalidFilter, "retrieval", "Retrieve",
		fmt.Sprintf("invalid filter term %q", comparator), nil)
}
