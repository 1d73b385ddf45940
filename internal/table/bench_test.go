package table_test

import (
	"fmt"
	"testing"

	. "github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/internal/types"
	"gotest.tools/assert"
)

const BENCH_SIZE = 2000

func newBenchTables(b *testing.B) (*Table, *Table) {
	ctx := newTestContext(b)
	students := newTestStudents(b, ctx, BENCH_SIZE)
	transcripts := newTranscript(b, ctx)
	for i := 0; i < BENCH_SIZE; i++ {
		assert.NilError(b, transcripts.Insert(Tuple{i % (BENCH_SIZE / 2), fmt.Sprintf("CS%d", i), "Fall", types.Char('B')}))
	}
	return students, transcripts
}

func BenchmarkSelect(b *testing.B) {
	students, _ := newBenchTables(b)
	key := NewKeyType(BENCH_SIZE / 2)

	b.Run("index", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			students.SelectKey(key)
		}
	})
	b.Run("scan", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			students.NonIndexSelect(key)
		}
	})
}

func BenchmarkJoin(b *testing.B) {
	students, transcripts := newBenchTables(b)
	attrs1, attrs2 := []string{"studId"}, []string{"id"}

	b.Run("hash", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			transcripts.Join(attrs1, attrs2, students)
		}
	})
	b.Run("index", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			transcripts.IndexJoin(attrs1, students)
		}
	})
	b.Run("nested loop", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			transcripts.NonIndexJoin(attrs1, attrs2, students)
		}
	})
}
