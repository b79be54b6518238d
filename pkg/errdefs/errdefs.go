// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errdefs holds the error kinds shared by the conversion packages and
// maps them to process exit codes.
package errdefs

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// configuration time
	ErrInvalidPattern = errors.Base("invalid pattern")
	ErrConfigNotFound = errors.Base("configuration not found")
	ErrInvalidConfig  = errors.Base("invalid configuration")

	// conversion time
	ErrSourceRead = errors.Base("reading source")
	ErrSinkWrite  = errors.Base("writing sink")
	ErrBackup     = errors.Base("creating backup")
	ErrRename     = errors.Base("replacing original file")

	ErrUsage = errors.Base("usage")
)

// kindError ties an underlying cause to one of the kinds above so that
// errors.Is matches both.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Wrap classifies cause as kind. A nil cause yields nil.
func Wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return errors.WithStack(&kindError{kind: kind, cause: cause})
}

// Exit codes returned by the to-uni binary.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitConfig  = 3
	ExitSource  = 4
	ExitSink    = 5
	ExitBackup  = 6
	ExitRename  = 7
)

// ExitCode returns the exit code for err. Backup and rename failures take
// precedence over the I/O kinds they may wrap. A joined error reports the
// code of its first classified member.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if code := ExitCode(e); code != ExitFailure {
				return code
			}
		}
		return ExitFailure
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, ErrBackup):
		return ExitBackup
	case errors.Is(err, ErrRename):
		return ExitRename
	case errors.Is(err, ErrSourceRead):
		return ExitSource
	case errors.Is(err, ErrSinkWrite):
		return ExitSink
	default:
		return ExitFailure
	}
}
