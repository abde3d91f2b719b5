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

package resultbuffer

import "github.com/rowkit/resultbuffer/session"

// ShallowCopy returns an independent cursor over this buffer's
// finalized data, owned by target instead of this buffer's own
// session, or (nil, nil) when sharing isn't safe:
//
//   - the buffer hasn't been finalized yet;
//   - any row carries a materialized LOB, since two cursors can't
//     safely share a handle whose lifetime is pinned to one session;
//   - the buffer has dropped rows from memory without a backend to
//     reproduce them from;
//   - a spill backend is present but refuses to clone.
//
// The copy shares the column metadata and, when present, the
// in-memory row slice; when spilled, it gets its own cloned backend
// handle. Its cursor starts rewound and its window parameters are
// left at their zero values -- a shallow copy presents the already-
// finalized row sequence, not a new window over it.
func (b *ResultBuffer) ShallowCopy(target session.Session) (*ResultBuffer, error) {
	if b.state != finalized {
		return nil, nil
	}
	if b.containsLobs {
		return nil, nil
	}
	if b.backend == nil && len(b.rows) < b.rowCount {
		return nil, nil
	}

	cp := &ResultBuffer{
		sess:               target,
		columns:            b.columns,
		visibleColumnCount: b.visibleColumnCount,
		totalColumnCount:   b.totalColumnCount,
		state:              finalized,
		started:            true,
		rowCount:           b.rowCount,
		maxMemoryRows:      target.MaxMemoryRows(),
		logger:             b.logger,
	}
	cp.cursor = cursorState{rowID: -1}

	if b.backend != nil {
		cloned, err := b.backend.CloneReadOnly()
		if err != nil || cloned == nil {
			b.logf("resultbuffer: shallow copy refused: backend clone failed: %v", err)
			return nil, nil
		}
		cp.backend = cloned
		cp.spilled = true
		return cp, nil
	}

	cp.rows = b.rows
	return cp, nil
}
