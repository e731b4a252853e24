package domain

import (
	"errors"
	"fmt"
)

// ErrUnparseable is wrapped by every filename parsing failure. Callers skip the
// file and continue with the batch.
var ErrUnparseable = errors.New("unparseable chart filename")

// UnrecognizedFilenameError is returned when a link carries no usable file name
// or the name lacks a token a naming rule requires.
type UnrecognizedFilenameError struct {
	Href   string
	Reason string
}

func (e *UnrecognizedFilenameError) Error() string {
	return fmt.Sprintf("unrecognized filename in %q: %s", e.Href, e.Reason)
}

func (e *UnrecognizedFilenameError) Unwrap() error { return ErrUnparseable }

// UnknownRegionCodeError is returned when a CIS name carries an AOI code that is
// not in the region table.
type UnknownRegionCodeError struct {
	Code string
}

func (e *UnknownRegionCodeError) Error() string {
	return fmt.Sprintf("unknown CIS region code %q", e.Code)
}

func (e *UnknownRegionCodeError) Unwrap() error { return ErrUnparseable }

// DateParseError is returned when no valid observation date can be read.
type DateParseError struct {
	Value  string
	Reason string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("parse date from %q: %s", e.Value, e.Reason)
}

func (e *DateParseError) Unwrap() error { return ErrUnparseable }

// ErrorKind returns a short metric label for a parse failure.
func ErrorKind(err error) string {
	var (
		unrecognized *UnrecognizedFilenameError
		region       *UnknownRegionCodeError
		date         *DateParseError
	)
	switch {
	case errors.As(err, &unrecognized):
		return "unrecognized_filename"
	case errors.As(err, &region):
		return "unknown_region_code"
	case errors.As(err, &date):
		return "date_parse"
	default:
		return "other"
	}
}
