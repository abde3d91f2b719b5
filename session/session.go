// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package session describes the external collaborator a ResultBuffer
// is handed at construction time: the owning database session. The
// buffer never reaches into a connection, a transaction or the
// network -- it only calls the methods below.
package session

import "github.com/rowkit/resultbuffer/value"

// Session is the minimal surface a ResultBuffer requires from its
// owning session. The buffer is constructed with one Session and
// never outlives it.
type Session interface {
	// AddTemporaryLob registers a materialized LOB value so the
	// session can release its storage on teardown, independent of
	// the buffer's own lifecycle.
	AddTemporaryLob(v value.Value)

	// MaxMemoryRows is the spill threshold in rows; see Config's
	// field of the same purpose for how a database-wide default
	// is derived when a buffer doesn't set its own.
	MaxMemoryRows() int

	// Persistent reports whether the underlying database is backed
	// by durable storage, as opposed to a throwaway in-memory
	// database.
	Persistent() bool

	// ReadOnly reports whether the session's database was opened
	// read-only.
	ReadOnly() bool

	// MVStore reports whether the database's page store supports
	// composite-key temp indexes, which determines the spill backend
	// chosen by spill.Select.
	MVStore() bool
}

// Config carries the database-wide defaults a persistent, writable
// session inherits; a transient session (read-only or in-memory)
// ignores them and never spills.
// Loaded with sigs.k8s.io/yaml, the same way table and tenant
// definitions are loaded elsewhere in this codebase.
type Config struct {
	// DefaultMaxMemoryRows is inherited by a session's
	// MaxMemoryRows() when the session isn't transient.
	DefaultMaxMemoryRows int `json:"defaultMaxMemoryRows" yaml:"defaultMaxMemoryRows"`

	// MVStore mirrors whether the configured page store supports
	// composite-key temp indexes.
	MVStore bool `json:"mvStore" yaml:"mvStore"`
}
