package core

import (
	"errors"
	"fmt"
)

// ProviderError wraps a mail/CMS provider failure. It is always distinct
// from an empty result: callers can rely on "no error, zero records" as a
// confirmed-empty mailbox.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// DataQualityError marks one case's malformed field. It is non-fatal: the
// offending case is flagged and the classification pass continues.
type DataQualityError struct {
	PV     string
	Field  string
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("case %s: bad %s: %s", e.PV, e.Field, e.Reason)
}

// ParseError marks one unparseable ledger line or cached record. It is
// non-fatal: the input is skipped and parsing continues.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
