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

package session

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/rowkit/resultbuffer/value"
)

// LoadConfig parses a database-wide Config from YAML, the way table
// and tenant definitions are parsed from YAML/JSON elsewhere in the
// pack (sigs.k8s.io/yaml round-trips through the JSON struct tags
// on Config, so one tag set serves both encodings).
func LoadConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("session: parsing config: %w", err)
	}
	return &cfg, nil
}

var _ Session = (*InMemory)(nil)

// InMemory is a reference Session for tests and for embedding callers
// that don't have a full database session object handy. It is not a
// database -- it only satisfies the five methods ResultBuffer needs.
type InMemory struct {
	MaxMemRows    int
	IsPersistent  bool
	IsReadOnly    bool
	IsMVStoreFlag bool

	lobs []value.Value
}

// NewInMemory builds an InMemory session whose MaxMemoryRows either
// comes from cfg.DefaultMaxMemoryRows (persistent session) or is
// unbounded (transient session).
func NewInMemory(cfg *Config, persistent, readOnly bool) *InMemory {
	s := &InMemory{
		IsPersistent: persistent,
		IsReadOnly:   readOnly,
	}
	if persistent && !readOnly && cfg != nil {
		s.MaxMemRows = cfg.DefaultMaxMemoryRows
		s.IsMVStoreFlag = cfg.MVStore
	} else {
		s.MaxMemRows = Unbounded
	}
	return s
}

// Unbounded is the sentinel MaxMemoryRows value meaning "never spill".
const Unbounded = -1

func (s *InMemory) MaxMemoryRows() int { return s.MaxMemRows }
func (s *InMemory) Persistent() bool   { return s.IsPersistent }
func (s *InMemory) ReadOnly() bool     { return s.IsReadOnly }
func (s *InMemory) MVStore() bool      { return s.IsMVStoreFlag }

// AddTemporaryLob records a materialized LOB so tests can assert on
// how many were registered; InMemory's teardown has nothing to
// release since it never owns external storage.
func (s *InMemory) AddTemporaryLob(v value.Value) {
	s.lobs = append(s.lobs, v)
}

// TemporaryLobs returns the LOBs registered so far, for test
// assertions.
func (s *InMemory) TemporaryLobs() []value.Value { return s.lobs }
