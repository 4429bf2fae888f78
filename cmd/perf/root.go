package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/ValentinKolb/isam/lib/jet/engines/memjet"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetLogger("cmd")

const perfDatabase = "perf.edb"

var (
	// PerfCmd represents the performance test command
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for the managed ISAM layer",
		Long: `Runs insert and scan benchmarks against a fresh in-memory engine.
Every benchmark goroutine works through its own session. The data file is
neither read nor written.`,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfRows             = 1000
	perfBatchSize        = 10
	perfSkip             = make([]string, 0)
)

func init() {
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. insert,scan)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines (each with its own session) to use for the benchmark"))
	key = "large-value-size"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How large the value for the insert-large test should be (in KB)"))
	key = "rows"
	PerfCmd.Flags().Int(key, 1000, util.WrapString("How many rows the scan test reads"))
	key = "batch"
	PerfCmd.Flags().Int(key, 10, util.WrapString("How many rows the insert-tx test commits per transaction"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfRows = viper.GetInt("rows")
	perfNumThreads = viper.GetInt("threads")
	perfBatchSize = viper.GetInt("batch")
	perfSkip = parseSkip(viper.GetString("skip"))

	if perfNumThreads <= 0 || perfRows <= 0 || perfBatchSize <= 0 || perfLargeValueSizeKB < 0 {
		return fmt.Errorf("threads, rows and batch must be positive")
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for the managed ISAM layer")
	fmt.Println()
	fmt.Printf("Threads: %d, Rows: %d, Batch: %d, Large Value: %d KB\n", perfNumThreads, perfRows, perfBatchSize, perfLargeValueSizeKB)
	fmt.Println()

	env, err := newPerfEnv()
	if err != nil {
		return err
	}
	defer env.close()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	benchmarks := []struct {
		name string
		fn   func(b *testing.B)
	}{
		{"insert", env.benchInsert},
		{"insert-large", env.benchInsertLarge},
		{"insert-tx", env.benchInsertTx},
		{"scan", env.benchScan},
	}
	for _, bench := range benchmarks {
		var result testing.BenchmarkResult
		if !shouldSkip(bench.name) {
			result = testing.Benchmark(bench.fn)
		}
		results[bench.name] = result
		printResult(bench.name, result)
		if result.N > 0 {
			fmt.Printf("%-20s%s\n", "", env.lastFairness())
		}
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Benchmark environment
// --------------------------------------------------------------------------

// perfEnv is the engine shared by all benchmarks. The admin session creates
// and drops tables from the benchmark goroutine only.
type perfEnv struct {
	instance *isam.Instance
	admin    *isam.Session
	db       *isam.Database
	tables   atomic.Int64
	ids      atomic.Int64

	mu       sync.Mutex
	fairness Fairness // of the last parallel run
}

func newPerfEnv() (*perfEnv, error) {
	instance, err := isam.NewInstance(memjet.NewMemJet(nil), "perf")
	if err != nil {
		return nil, err
	}
	admin, err := instance.BeginSession()
	if err != nil {
		_ = instance.Dispose()
		return nil, err
	}
	db, err := admin.CreateDatabase(perfDatabase, nil)
	if err != nil {
		_ = admin.Dispose()
		_ = instance.Dispose()
		return nil, err
	}
	return &perfEnv{instance: instance, admin: admin, db: db}, nil
}

func (e *perfEnv) close() {
	if err := e.db.Dispose(); err != nil {
		log.Warningf("dispose database: %v", err)
	}
	if err := e.admin.Dispose(); err != nil {
		log.Warningf("dispose session: %v", err)
	}
	if err := e.instance.Dispose(); err != nil {
		log.Warningf("dispose instance: %v", err)
	}
}

// table creates a fresh table for one benchmark run and drops it on cleanup
func (e *perfEnv) table(tb testing.TB, prefix string) string {
	name := fmt.Sprintf("%s_%d", prefix, e.tables.Add(1))
	err := e.db.CreateTable(isam.TableDefinition{
		Name: name,
		Columns: []isam.ColumnDefinition{
			{Name: "id", Type: isam.ColumnTypeInt64, Flags: isam.ColumnNonNull},
			{Name: "name", Type: isam.ColumnTypeText, MaxLength: 64},
			{Name: "payload", Type: isam.ColumnTypeBinary},
		},
		Indexes: []isam.IndexDefinition{
			{Name: "pk", KeyColumns: []isam.KeyColumn{{Name: "id"}}, Flags: isam.IndexPrimary},
		},
	})
	if err != nil {
		tb.Fatalf("(%s) - error creating table: %v", prefix, err)
	}
	tb.Cleanup(func() {
		if err := e.db.DropTable(name); err != nil {
			log.Errorf("(%s) - error dropping table: %v", prefix, err)
		}
	})
	return name
}

// worker is the per goroutine state of a parallel benchmark
type worker struct {
	session *isam.Session
	db      *isam.Database
	cursor  *isam.Cursor
}

func (e *perfEnv) newWorker(table string) (*worker, error) {
	session, err := e.instance.BeginSession()
	if err != nil {
		return nil, err
	}
	db, err := session.OpenDatabase(perfDatabase, nil)
	if err != nil {
		_ = session.Dispose()
		return nil, err
	}
	cursor, err := db.OpenCursorShared(table)
	if err != nil {
		_ = db.Dispose()
		_ = session.Dispose()
		return nil, err
	}
	return &worker{session: session, db: db, cursor: cursor}, nil
}

func (w *worker) close() {
	_ = w.cursor.Dispose()
	_ = w.db.Dispose()
	_ = w.session.Dispose()
}

// parallel runs fn for every iteration on a worker of its own
func (e *perfEnv) parallel(b *testing.B, test, table string, fn func(w *worker) error) {
	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	var (
		mu     sync.Mutex
		counts []float64
	)
	b.RunParallel(func(pb *testing.PB) {
		w, err := e.newWorker(table)
		if err != nil {
			log.Errorf("(%s) - error opening worker: %v", test, err)
			return
		}
		defer w.close()

		ops := 0
		for pb.Next() {
			if err := fn(w); err != nil {
				log.Errorf("(%s) - %v", test, err)
			}
			ops++
		}

		mu.Lock()
		counts = append(counts, float64(ops))
		mu.Unlock()
	})

	e.mu.Lock()
	e.fairness = NewFairness(counts)
	e.mu.Unlock()
}

// lastFairness returns the fairness of the last parallel run
func (e *perfEnv) lastFairness() Fairness {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fairness
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func (e *perfEnv) benchInsert(b *testing.B) {
	table := e.table(b, "insert")
	e.parallel(b, "insert", table, func(w *worker) error {
		return w.cursor.Insert(map[string]any{"id": e.ids.Add(1), "name": "test"})
	})
}

func (e *perfEnv) benchInsertLarge(b *testing.B) {
	table := e.table(b, "large")
	payload := make([]byte, perfLargeValueSizeKB*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	e.parallel(b, "insert-large", table, func(w *worker) error {
		return w.cursor.Insert(map[string]any{"id": e.ids.Add(1), "payload": payload})
	})
}

func (e *perfEnv) benchInsertTx(b *testing.B) {
	table := e.table(b, "tx")
	e.parallel(b, "insert-tx", table, func(w *worker) error {
		tx, err := w.session.BeginTransaction()
		if err != nil {
			return err
		}
		defer tx.Dispose()

		for i := 0; i < perfBatchSize; i++ {
			if err := w.cursor.Insert(map[string]any{"id": e.ids.Add(1), "name": "batch"}); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (e *perfEnv) benchScan(b *testing.B) {
	table := e.table(b, "scan")

	// prefill through the admin session
	cursor, err := e.db.OpenCursorShared(table)
	if err != nil {
		b.Fatalf("(scan) - error opening table: %v", err)
	}
	for i := 0; i < perfRows; i++ {
		if err := cursor.Insert(map[string]any{"id": int64(i), "name": "row"}); err != nil {
			b.Fatalf("(scan) - error inserting row: %v", err)
		}
	}
	if err := cursor.Dispose(); err != nil {
		b.Fatalf("(scan) - error closing table: %v", err)
	}

	e.parallel(b, "scan", table, func(w *worker) error {
		ok, err := w.cursor.MoveNext()
		if err == nil && !ok {
			_, err = w.cursor.MoveFirst()
		}
		if err != nil {
			return err
		}
		_, err = w.cursor.RetrieveValue("id")
		return err
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseSkip(value string) []string {
	skip := make([]string, 0)
	for _, test := range strings.Split(value, ",") {
		if test = strings.TrimSpace(test); test != "" {
			skip = append(skip, test)
		}
	}
	return skip
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// opsPerSecond returns ns/op and ops/sec of a result, zero for skipped tests
func opsPerSecond(result testing.BenchmarkResult) (float64, float64) {
	if result.NsPerOp() == 0 {
		return 0, 0
	}
	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	return nsPerOp, 1.0 / (nsPerOp / 1e9)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	nsPerOp, opsPerSec := opsPerSecond(result)
	if nsPerOp == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// resultRow renders one CSV row
func resultRow(test string, result testing.BenchmarkResult) []string {
	nsPerOp, opsPerSec := opsPerSecond(result)
	return []string{
		test,
		fmt.Sprintf("%.0f", nsPerOp),
		time.Duration(nsPerOp).String(),
		fmt.Sprintf("%.0f", opsPerSec),
		strconv.FormatBool(nsPerOp == 0),
		strconv.Itoa(perfNumThreads),
		strconv.Itoa(perfRows),
		strconv.Itoa(perfBatchSize),
		strconv.Itoa(perfLargeValueSizeKB),
	}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Threads", "Rows", "BatchSize", "LargeValueSizeKB",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}
	for test, result := range results {
		if err := writer.Write(resultRow(test, result)); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
