// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package errs

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeNotAParticipant Code = "NOT_A_PARTICIPANT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeStaleWrite      Code = "STALE_WRITE"
	CodeTransientStore  Code = "TRANSIENT_STORE"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)
