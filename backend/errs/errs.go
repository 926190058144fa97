// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package errs carries the lifecycle engine's error taxonomy. Nothing in it
// is user-fatal: a participant rejection is the caller's bug, a stale write
// means a concurrent writer already reached the intended state, and a
// transient store failure is absorbed by the next sweep tick.
package errs

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is compares on code so sentinel matching survives wrapping with a cause.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

var (
	// ErrNotAParticipant rejects callers acting on a conversation they are
	// not a member of. Rejected, never retried.
	ErrNotAParticipant = New(CodeNotAParticipant, "caller is not a participant of the conversation")

	// ErrStaleWrite reports a conditional update that lost its race. The
	// concurrent winner already produced the intended state, so callers
	// drop it silently.
	ErrStaleWrite = New(CodeStaleWrite, "conditional update lost a concurrent race")

	ErrMessageNotFound      = New(CodeNotFound, "message not found")
	ErrConversationNotFound = New(CodeNotFound, "conversation not found")
)

// Transient marks a store/network failure that the caller retries with
// backoff, or leaves for the next periodic sweep.
func Transient(message string, cause error) error {
	return Wrap(CodeTransientStore, message, cause)
}

// CodeOf extracts the taxonomy code, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}
