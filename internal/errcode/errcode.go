/*
 *
 * Copyright 2025 The prodcons-examples Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package errcode defines the stable error identifiers shared by the buffer
// packages and executables.
package errcode

// Code is a stable error identifier. It is comparable and implements error,
// so callers can test with errors.Is(err, errcode.AllocFailed).
type Code string

func (c Code) Error() string { return string(c) }

const (
	// Environment/resource errors. These are fatal to the process that hits them.
	AllocFailed   Code = "alloc_failed"
	AttachFailed  Code = "attach_failed"
	ReleaseFailed Code = "release_failed"
	SemFailed     Code = "sem_failed"

	// Programming errors.
	InvalidState Code = "invalid_state"
	SemOverflow  Code = "sem_overflow"

	Unsupported Code = "unsupported"
)

// E keeps the failing operation and the underlying cause next to a Code.
type E struct {
	C   Code
	Op  string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s += " (" + e.Op + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the code and the cause to errors.Is/As.
func (e *E) Unwrap() []error {
	if e.Err == nil {
		return []error{e.C}
	}
	return []error{e.C, e.Err}
}

// Wrap returns nil when err is nil, otherwise an *E.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// New returns an *E without a cause.
func New(c Code, op string) error {
	return &E{C: c, Op: op}
}

// Of extracts the Code from err, or "" when err carries none.
func Of(err error) Code {
	for err != nil {
		switch v := err.(type) {
		case Code:
			return v
		case *E:
			return v.C
		case interface{ Unwrap() error }:
			err = v.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				if c := Of(inner); c != "" {
					return c
				}
			}
			return ""
		default:
			return ""
		}
	}
	return ""
}
