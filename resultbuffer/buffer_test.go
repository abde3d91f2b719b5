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

import (
	"testing"

	"github.com/rowkit/resultbuffer/column"
	"github.com/rowkit/resultbuffer/session"
	"github.com/rowkit/resultbuffer/value"
)

func oneIntColumn() column.Array {
	return column.Array{{ColumnName: "n", Type: column.BigInt}}
}

func twoColumn() column.Array {
	return column.Array{
		{ColumnName: "n", Type: column.BigInt},
		{ColumnName: "s", Type: column.Varchar},
	}
}

func scanAll(t *testing.T, b *ResultBuffer) []value.Row {
	t.Helper()
	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	var rows []value.Row
	for {
		ok, err := b.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		rows = append(rows, b.CurrentRow())
	}
	if !b.IsAfterLast() {
		t.Fatal("expected is-after-last once scanning stops")
	}
	return rows
}

func intCol(rows []value.Row, col int) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = int64(r[col].(value.IntValue))
	}
	return out
}

func TestDistinctPreservesInsertionOrderWithoutSort(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.ConfigureDistinct(); err != nil {
		t.Fatalf("configure distinct: %v", err)
	}
	for _, n := range []int64{1, 2, 1, 3, 2} {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatalf("add row %d: %v", n, err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	rows := scanAll(t, b)
	got := intCol(rows, 0)
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if b.RowCount() != 3 {
		t.Fatalf("expected rowCount 3, got %d", b.RowCount())
	}
}

func TestSortWithOffsetAndFetch(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.SetSort(NewSortOrder(ColumnOrder{Column: 0, Dir: value.Ascending, Nulls: value.NullsLast})); err != nil {
		t.Fatalf("set sort: %v", err)
	}
	if err := b.SetOffset(2); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLimit(3); err != nil {
		t.Fatal(err)
	}
	for _, n := range []int64{5, 3, 8, 1, 4, 9, 2} {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatalf("add row: %v", err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	got := intCol(scanAll(t, b), 0)
	want := []int64{3, 4, 5}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if b.RowCount() != 3 {
		t.Fatalf("expected rowCount 3, got %d", b.RowCount())
	}
}

func TestFetchWithTiesExtendsWindow(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, twoColumn(), 2)
	if err := b.SetSort(NewSortOrder(ColumnOrder{Column: 0, Dir: value.Ascending, Nulls: value.NullsLast})); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLimit(2); err != nil {
		t.Fatal(err)
	}
	if err := b.SetWithTies(true); err != nil {
		t.Fatal(err)
	}
	rows := []value.Row{
		{value.IntValue(10), value.StringValue("a")},
		{value.IntValue(20), value.StringValue("b")},
		{value.IntValue(20), value.StringValue("c")},
		{value.IntValue(20), value.StringValue("d")},
		{value.IntValue(30), value.StringValue("e")},
	}
	for _, r := range rows {
		if err := b.AddRow(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	got := scanAll(t, b)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows with ties, got %d: %+v", len(got), got)
	}
	want := []string{"a", "b", "c", "d"}
	for i, w := range want {
		if string(got[i][1].(value.StringValue)) != w {
			t.Fatalf("row %d: got %+v, want suffix %s", i, got[i], w)
		}
	}
	if b.RowCount() != 4 {
		t.Fatalf("expected rowCount 4, got %d", b.RowCount())
	}
}

func TestFetchPercentRoundsUp(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.SetSort(NewSortOrder(ColumnOrder{Column: 0, Dir: value.Ascending, Nulls: value.NullsLast})); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLimit(25); err != nil {
		t.Fatal(err)
	}
	if err := b.SetFetchPercent(true); err != nil {
		t.Fatal(err)
	}
	for n := int64(1); n <= 10; n++ {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	got := intCol(scanAll(t, b), 0)
	want := []int64{1, 2, 3}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSpillPromotionPreservesInsertionOrder(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: 4}
	b := New(sess, oneIntColumn(), 1)
	for n := int64(1); n <= 10; n++ {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatalf("add row %d: %v", n, err)
		}
	}
	if !b.spilled {
		t.Fatal("expected buffer to have spilled by row 10 with maxMemoryRows=4")
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	got := intCol(scanAll(t, b), 0)
	for i, v := range got {
		if v != int64(i+1) {
			t.Fatalf("got %v, want 1..10 in order", got)
		}
	}
	if b.backend == nil {
		t.Fatal("expected a non-nil backend after spilling")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestDistinctOnIndexesAcrossSpill(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: 3}
	b := New(sess, twoColumn(), 2)
	if err := b.ConfigureDistinctOn([]int{0}); err != nil {
		t.Fatalf("configure distinct on: %v", err)
	}
	rows := []value.Row{
		{value.IntValue(1), value.StringValue("a")},
		{value.IntValue(2), value.StringValue("b")},
		{value.IntValue(1), value.StringValue("c")},
		{value.IntValue(3), value.StringValue("d")},
		{value.IntValue(2), value.StringValue("e")},
		{value.IntValue(4), value.StringValue("f")},
	}
	for _, r := range rows {
		if err := b.AddRow(r); err != nil {
			t.Fatalf("add row: %v", err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	got := scanAll(t, b)
	if len(got) != 4 {
		t.Fatalf("expected 4 distinct rows, got %d: %+v", len(got), got)
	}
	seen := map[int64]bool{}
	for _, r := range got {
		seen[int64(r[0].(value.IntValue))] = true
	}
	for _, want := range []int64{1, 2, 3, 4} {
		if !seen[want] {
			t.Fatalf("expected column-0 value %d in result set %v", want, got)
		}
	}
}

func TestAddRowAfterDoneIsRejected(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	if err := b.AddRow(value.Row{value.IntValue(1)}); err == nil {
		t.Fatal("expected addRow after done to fail")
	}
}

func TestConfigureDistinctTwiceFails(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.ConfigureDistinct(); err != nil {
		t.Fatal(err)
	}
	if err := b.ConfigureDistinct(); err == nil {
		t.Fatal("expected a second configure-distinct call to fail")
	}
}

func TestRemoveDistinctRowOnNonDistinctBufferFails(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	if err := b.RemoveDistinctRow(value.Row{value.IntValue(1)}); err == nil {
		t.Fatal("expected remove-distinct-row to fail on a non-distinct buffer")
	}
}

func TestRoundTripRowCountMatchesCursorCount(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	for n := int64(1); n <= 5; n++ {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	rows := scanAll(t, b)
	if len(rows) != b.RowCount() {
		t.Fatalf("cursor produced %d rows, rowCount reports %d", len(rows), b.RowCount())
	}
}

func TestShallowCopyYieldsIdenticalSequence(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, oneIntColumn(), 1)
	for n := int64(1); n <= 3; n++ {
		if err := b.AddRow(value.Row{value.IntValue(n)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	other := &session.InMemory{MaxMemRows: session.Unbounded}
	cp, err := b.ShallowCopy(other)
	if err != nil {
		t.Fatalf("shallow copy: %v", err)
	}
	if cp == nil {
		t.Fatal("expected a shallow copy to be possible")
	}
	original := intCol(scanAll(t, b), 0)
	copied := intCol(scanAll(t, cp), 0)
	if len(original) != len(copied) {
		t.Fatalf("original %v, copy %v", original, copied)
	}
	for i := range original {
		if original[i] != copied[i] {
			t.Fatalf("original %v, copy %v", original, copied)
		}
	}
}

func TestShallowCopyRefusedWhenBufferContainsLobs(t *testing.T) {
	sess := &session.InMemory{MaxMemRows: session.Unbounded}
	b := New(sess, column.Array{{ColumnName: "b", Type: column.Blob}}, 1)
	if err := b.AddRow(value.Row{value.NewBlob([]byte("x"))}); err != nil {
		t.Fatal(err)
	}
	if err := b.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	cp, err := b.ShallowCopy(&session.InMemory{MaxMemRows: session.Unbounded})
	if err != nil {
		t.Fatalf("shallow copy: %v", err)
	}
	if cp != nil {
		t.Fatal("expected shallow copy to be refused when the buffer owns LOB handles")
	}
}
