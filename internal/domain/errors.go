package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownSource = errors.New("unknown source")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
)

// ErrorScope classifies a pipeline failure by the unit of work it aborted.
type ErrorScope string

const (
	// ScopeSourceFetch: a provider call failed; the source's whole batch for
	// that run produced nothing.
	ScopeSourceFetch ErrorScope = "source_fetch"
	// ScopeRecordPersist: one normalized market's upsert or snapshot append
	// failed; the batch continued.
	ScopeRecordPersist ErrorScope = "record_persist"
	// ScopeScoring: feature computation or signal persistence failed for one
	// market during a scoring pass.
	ScopeScoring ErrorScope = "scoring"
)

// PipelineError is a structured failure record collected (never thrown past
// the pipeline entry points) during an ingestion or scoring run. Key
// identifies the failed unit: the source tag for fetch errors, "SOURCE
// externalId" for persist errors, the market ID for scoring errors.
type PipelineError struct {
	Scope   ErrorScope
	Key     string
	Message string
}

// Error renders the record as the flat string reported at the API boundary.
func (e PipelineError) Error() string {
	if e.Scope == ScopeSourceFetch {
		return fmt.Sprintf("%s fetch failed: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ErrorStrings flattens structured pipeline errors for a response body. The
// result is never nil so it serializes as an empty JSON array.
func ErrorStrings(errs []PipelineError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
