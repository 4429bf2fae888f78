package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
)

// RunEngineBenchmarks runs all benchmarks for a jet.API implementation
func RunEngineBenchmarks(b *testing.B, name string, factory EngineFactory) {

	b.Run("Insert", func(b *testing.B) {
		benchmarkInsert(b, factory())
	})

	b.Run("InsertUniqueIndex", func(b *testing.B) {
		benchmarkInsertUniqueIndex(b, factory())
	})

	b.Run("Scan", func(b *testing.B) {
		benchmarkScan(b, factory())
	})

	b.Run("Transaction", func(b *testing.B) {
		benchmarkTransaction(b, factory())
	})

	b.Run("CreateDropTable", func(b *testing.B) {
		benchmarkCreateDropTable(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for plain record inserts without indexes
func benchmarkInsert(b *testing.B, api jet.API) {
	e := newEnv(b, api)
	b.Cleanup(e.close)

	ids := e.createTable(b, "bench", []column{{"id", longCol, nil}, {"data", binCol, nil}}, nil)
	tableid := e.openTable(b, "bench")
	payload := make([]byte, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(int32(i)), ids["data"]: payload}); err != nil {
			b.Fatalf("insert failed: %v", err)
		}
	}
}

// Benchmark for inserts into a table with a unique secondary index
func benchmarkInsertUniqueIndex(b *testing.B, api jet.API) {
	e := newEnv(b, api)
	b.Cleanup(e.close)

	ids := e.createTable(b, "bench", []column{{"id", longCol, nil}},
		[]jet.IndexCreate{index("primary", key("+id"), jet.IndexPrimary)})
	tableid := e.openTable(b, "bench")

	// unique checks grow with the table, keep it bounded
	const batch = 512

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%batch == 0 && i > 0 {
			b.StopTimer()
			for e.api.Move(e.sesid, tableid, jet.MoveFirst) == nil {
				_ = e.api.Delete(e.sesid, tableid)
			}
			b.StartTimer()
		}
		if err := e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(int32(i))}); err != nil {
			b.Fatalf("insert failed: %v", err)
		}
	}
}

// Benchmark for a full forward scan retrieving one column per record
func benchmarkScan(b *testing.B, api jet.API) {
	e := newEnv(b, api)
	b.Cleanup(e.close)

	ids := e.createTable(b, "bench", []column{{"id", longCol, nil}}, nil)
	tableid := e.openTable(b, "bench")
	for i := 0; i < 1000; i++ {
		if err := e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(int32(i))}); err != nil {
			b.Fatalf("insert failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := e.api.Move(e.sesid, tableid, jet.MoveFirst)
		for err == nil {
			if _, err := e.api.RetrieveColumn(e.sesid, tableid, ids["id"]); err != nil {
				b.Fatalf("retrieve failed: %v", err)
			}
			err = e.api.Move(e.sesid, tableid, jet.MoveNext)
		}
		if !errors.Is(err, jet.ErrNoCurrentRecord) {
			b.Fatalf("move failed: %v", err)
		}
	}
}

// Benchmark for begin, insert and commit (every 4th transaction is rolled back)
func benchmarkTransaction(b *testing.B, api jet.API) {
	e := newEnv(b, api)
	b.Cleanup(e.close)

	ids := e.createTable(b, "bench", []column{{"id", longCol, nil}}, nil)
	tableid := e.openTable(b, "bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.api.BeginTransaction(e.sesid); err != nil {
			b.Fatalf("begin failed: %v", err)
		}
		if err := e.insert(tableid, map[jet.Columnid][]byte{ids["id"]: int32Bytes(int32(i))}); err != nil {
			b.Fatalf("insert failed: %v", err)
		}
		var err error
		if i%4 == 3 {
			err = e.api.Rollback(e.sesid, jet.RollbackNone)
		} else {
			err = e.api.CommitTransaction(e.sesid, jet.CommitLazyFlush)
		}
		if err != nil {
			b.Fatalf("resolve failed: %v", err)
		}
	}
}

// Benchmark for the schema path of the ISAM layer: create, add columns, index, close, drop
func benchmarkCreateDropTable(b *testing.B, api jet.API) {
	e := newEnv(b, api)
	b.Cleanup(e.close)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		name := fmt.Sprintf("table-%d", i)
		e.createTable(b, name, []column{{"id", longCol, nil}, {"name", textCol, nil}},
			[]jet.IndexCreate{index("primary", key("+id"), jet.IndexPrimary)})
		if err := e.api.DeleteTable(e.sesid, e.dbid, name); err != nil {
			b.Fatalf("delete failed: %v", err)
		}
	}
}
