package utils

import "fmt"

// FetchError represents a failed call to an external data provider
// (network failure, rate limit, auth rejection, malformed envelope).
// Fetch errors are never cached; callers decide whether to retry.
type FetchError struct {
	Provider string
	Cause    error
}

// Error returns the error message string.
func (e *FetchError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: fetch failed", e.Provider)
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError wraps an underlying provider failure.
func NewFetchError(provider string, cause error) error {
	return &FetchError{Provider: provider, Cause: cause}
}

// NormalizationKind identifies why a raw table could not be normalized.
type NormalizationKind string

const (
	// KindAmbiguousColumns means composite columns could not be collapsed
	// to a single series for the requested symbol.
	KindAmbiguousColumns NormalizationKind = "ambiguous_columns"
	// KindUnparseable means the input had no identifiable close column.
	KindUnparseable NormalizationKind = "unparseable"
)

// NormalizationError represents structurally unrecognizable raw series
// data. It is not retried automatically: refetching the same malformed
// response yields the same result.
type NormalizationError struct {
	Kind    NormalizationKind
	Message string
}

// Error returns the error message string.
func (e *NormalizationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("normalization failed: %s", e.Kind)
	}
	return fmt.Sprintf("normalization failed (%s): %s", e.Kind, e.Message)
}

// Is matches any NormalizationError of the same kind, so callers can use
// errors.Is(err, utils.ErrAmbiguousColumns).
func (e *NormalizationError) Is(target error) bool {
	t, ok := target.(*NormalizationError)
	return ok && t.Kind == e.Kind
}

// Sentinel normalization errors for errors.Is comparisons.
var (
	ErrAmbiguousColumns = &NormalizationError{Kind: KindAmbiguousColumns}
	ErrUnparseable      = &NormalizationError{Kind: KindUnparseable}
)

// NewAmbiguousColumnsError creates a NormalizationError for composite
// column sets that cannot be resolved to one symbol.
func NewAmbiguousColumnsError(format string, args ...interface{}) error {
	return &NormalizationError{Kind: KindAmbiguousColumns, Message: fmt.Sprintf(format, args...)}
}

// NewUnparseableError creates a NormalizationError for input with no
// recognizable close-like column.
func NewUnparseableError(format string, args ...interface{}) error {
	return &NormalizationError{Kind: KindUnparseable, Message: fmt.Sprintf(format, args...)}
}

// InvalidAcquisitionError rejects ledger input with non-positive quantity
// or price. The ledger is left untouched when this is returned.
type InvalidAcquisitionError struct {
	Symbol  string
	Message string
}

// Error returns the error message string.
func (e *InvalidAcquisitionError) Error() string {
	return fmt.Sprintf("invalid acquisition for %s: %s", e.Symbol, e.Message)
}

// NewInvalidAcquisitionError creates an InvalidAcquisitionError.
func NewInvalidAcquisitionError(symbol, format string, args ...interface{}) error {
	return &InvalidAcquisitionError{Symbol: symbol, Message: fmt.Sprintf(format, args...)}
}

// InvalidDisposalError rejects a disposal that exceeds the held quantity
// or targets a symbol with no holding.
type InvalidDisposalError struct {
	Symbol  string
	Message string
}

// Error returns the error message string.
func (e *InvalidDisposalError) Error() string {
	return fmt.Sprintf("invalid disposal for %s: %s", e.Symbol, e.Message)
}

// NewInvalidDisposalError creates an InvalidDisposalError.
func NewInvalidDisposalError(symbol, format string, args ...interface{}) error {
	return &InvalidDisposalError{Symbol: symbol, Message: fmt.Sprintf(format, args...)}
}

// InvalidSymbolError rejects a watchlist add for a symbol the validity
// collaborator does not recognize as tradable.
type InvalidSymbolError struct {
	Symbol string
}

// Error returns the error message string.
func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("unknown or untradable symbol: %s", e.Symbol)
}

// NewInvalidSymbolError creates an InvalidSymbolError.
func NewInvalidSymbolError(symbol string) error {
	return &InvalidSymbolError{Symbol: symbol}
}
