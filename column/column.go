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

// Package column describes the per-column metadata a ResultBuffer
// exposes to its consumer. The buffer never constructs this metadata
// itself -- it is handed an array of it at construction time by the
// query plan that produced the row shape. The type codes below mirror
// the constant-table style expr/builtin.go uses for its TypeSet (a
// small named int type with a block of package-level constants),
// adapted here to JDBC-style SQL type codes rather than PartiQL's
// bitmask.
package column

// SQLType is a declared SQL type code, independent of the dynamic
// value.Kind a particular row happens to carry in that column.
type SQLType int

const (
	Unknown SQLType = iota
	Boolean
	SmallInt
	Integer
	BigInt
	Decimal
	Real
	Double
	Varchar
	Char
	Clob
	Blob
	Date
	Time
	Timestamp
	ArrayType
	RowType
)

// Meta is the immutable per-column description the buffer carries
// for its lifetime. It is never mutated after the buffer is
// constructed.
type Meta struct {
	Alias          string
	TableName      string
	SchemaName     string
	ColumnName     string
	Type           SQLType
	Precision      int
	Scale          int
	DisplaySize    int
	Nullable       bool
	AutoIncrement  bool
}

// Array is the ordered list of column metadata a ResultBuffer is
// constructed with. Index i describes row column i; only the first
// visibleColumnCount entries are ever surfaced to a consumer.
type Array []Meta

// Alias returns the display name of column i, falling back to the
// underlying column name when no alias was assigned.
func (a Array) Alias(i int) string {
	if a[i].Alias != "" {
		return a[i].Alias
	}
	return a[i].ColumnName
}
