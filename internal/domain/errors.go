/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDateFormat      = errors.New("unrecognized datetime format")
	ErrNoWorkingDays   = errors.New("no working days in range")
	ErrNotTaskOrStory  = errors.New("issue is not a task or story")
	ErrMissingEstimate = errors.New("issue has no original time estimate")
	ErrStatusNotDone   = errors.New("issue status is not done")
)

// DateFormatError reports a timestamp that none of the parsers accepted.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string { return fmt.Sprintf("unrecognized datetime format: %q", e.Value) }

func (e *DateFormatError) Unwrap() error { return ErrDateFormat }

// IneligibleError is the failure side of productivity scoring: the issue key,
// a display reason, and the sentinel describing which gate failed.
type IneligibleError struct {
	IssueKey string
	Reason   string
	Err      error
}

func (e *IneligibleError) Error() string { return e.Reason }

func (e *IneligibleError) Unwrap() error { return e.Err }

func Ineligible(key string, err error, format string, args ...any) *IneligibleError {
	return &IneligibleError{IssueKey: key, Reason: fmt.Sprintf(format, args...), Err: err}
}

// NoWorkingDaysError names the range whose business calendar came out empty.
type NoWorkingDaysError struct {
	Start, End Date
}

func (e *NoWorkingDaysError) Error() string {
	return fmt.Sprintf("No working days found in range %s to %s.", e.Start, e.End)
}

func (e *NoWorkingDaysError) Unwrap() error { return ErrNoWorkingDays }
