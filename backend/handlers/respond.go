// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"errors"
	"net/http"

	"github.com/vanishchat/vanish/backend/errs"
)

// writeEngineError maps the lifecycle taxonomy onto HTTP statuses.
// StaleWrite never reaches here: the intended state already exists, so
// stores and the sweeper swallow it.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrNotAParticipant):
		http.Error(w, "Not a participant of this conversation", http.StatusForbidden)
	case errs.CodeOf(err) == errs.CodeNotFound:
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
