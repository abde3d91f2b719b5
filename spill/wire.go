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
	"time"

	"github.com/amazon-ion/ion-go/ion"
	"github.com/rowkit/resultbuffer/value"
)

// wireValue is the on-disk representation of one value.Value. The
// spill backends use github.com/amazon-ion/ion-go to encode/decode
// it rather than hand-rolling a binary format.
type wireValue struct {
	Kind byte
	I    int64
	F    float64
	S    string
	B    []byte
	Bool bool
	T    time.Time
}

func encodeValue(v value.Value) wireValue {
	w := wireValue{Kind: byte(v.Kind())}
	switch t := v.(type) {
	case value.NullValue:
	case value.BoolValue:
		w.Bool = bool(t)
	case value.IntValue:
		w.I = int64(t)
	case value.FloatValue:
		w.F = float64(t)
	case value.TimestampValue:
		w.T = time.Time(t)
	case value.StringValue:
		w.S = string(t)
	case value.ClobValue:
		w.S = t.String()
	case value.BlobValue:
		w.B = append([]byte(nil), t.Bytes()...)
	}
	return w
}

func decodeValue(w wireValue) value.Value {
	switch value.Kind(w.Kind) {
	case value.Null:
		return value.NullValue{}
	case value.Bool:
		return value.BoolValue(w.Bool)
	case value.Int:
		return value.IntValue(w.I)
	case value.Float:
		return value.FloatValue(w.F)
	case value.Timestamp:
		return value.TimestampValue(w.T)
	case value.String:
		return value.StringValue(w.S)
	case value.Clob:
		return value.NewClob(w.S)
	case value.Blob:
		return value.NewBlob(w.B)
	default:
		return value.NullValue{}
	}
}

// encodeRow/decodeRow marshal a value.Row through ion-go's
// MarshalBinary/Unmarshal, the same function-level API sneller's own
// ion package exposes under the names ion.Marshal/ion.Unmarshal.
func encodeRow(row value.Row) ([]byte, error) {
	wire := make([]wireValue, len(row))
	for i, v := range row {
		wire[i] = encodeValue(v)
	}
	return ion.MarshalBinary(wire)
}

func decodeRow(data []byte) (value.Row, error) {
	var wire []wireValue
	if err := ion.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	row := make(value.Row, len(wire))
	for i, w := range wire {
		row[i] = decodeValue(w)
	}
	return row, nil
}
