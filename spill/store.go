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

package spill

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// rowLog is an append-only, length-prefixed sequence of Ion-encoded
// rows backed by a temp file. Both reference backends embed one; it
// stands in for a B-tree or MV-store temp table without committing
// this module to a real embedded-database dependency the rest of the
// pack doesn't carry.
type rowLog struct {
	path   string
	owner  bool // true if this handle is responsible for removing the file on close
	file   *os.File
	reader *os.File // separate handle so writes and the scan cursor don't race a shared offset
	count  int
}

func newRowLog(dir string) (*rowLog, error) {
	f, err := os.CreateTemp(dir, fmt.Sprintf("resultbuffer-%s-*.ion", uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("spill: creating temp table: %w", err)
	}
	return &rowLog{path: f.Name(), owner: true, file: f}, nil
}

func (l *rowLog) append(data []byte) error {
	if l.file == nil {
		return fmt.Errorf("spill: cannot write to a read-only clone")
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := l.file.Write(hdr[:]); err != nil {
		return fmt.Errorf("spill: writing record header: %w", err)
	}
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("spill: writing record: %w", err)
	}
	l.count++
	return nil
}

func (l *rowLog) reset() error {
	if l.reader != nil {
		if _, err := l.reader.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("spill: resetting scan cursor: %w", err)
		}
		return nil
	}
	r, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("spill: resetting scan cursor: %w", err)
	}
	l.reader = r
	return nil
}

// next reads the next record, returning (nil, io.EOF) once the
// cursor has consumed everything written so far.
func (l *rowLog) next() ([]byte, error) {
	if l.reader == nil {
		if err := l.reset(); err != nil {
			return nil, err
		}
	}
	var hdr [4]byte
	if _, err := io.ReadFull(l.reader, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("spill: reading record header: %w", err)
	}
	size := binary.BigEndian.Uint32(hdr[:])
	data := make([]byte, size)
	if _, err := io.ReadFull(l.reader, data); err != nil {
		return nil, fmt.Errorf("spill: reading record: %w", err)
	}
	return data, nil
}

func (l *rowLog) close() error {
	var err error
	if l.reader != nil {
		err = l.reader.Close()
		l.reader = nil
	}
	if l.file != nil {
		if cerr := l.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		l.file = nil
	}
	if l.owner {
		if rerr := os.Remove(l.path); rerr != nil && err == nil && !os.IsNotExist(rerr) {
			err = rerr
		}
	}
	return err
}

// clone returns a second, read-only handle over the same underlying
// file so the original and the clone can each hold an independent
// scan cursor. The clone never removes the file on close -- only the
// owning handle does -- so a shallow copy can share a cloned backend
// handle rather than duplicating storage. The clone opens its scan
// handle immediately, so it can still read the rows after the owner
// has closed and removed the file.
func (l *rowLog) clone() (*rowLog, error) {
	r, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("spill: cloning temp table: %w", err)
	}
	return &rowLog{path: l.path, owner: false, reader: r, count: l.count}, nil
}
