package isam

import "sync/atomic"

// SchemaVersion is a generation counter incremented once per committed schema
// change (CreateTable, DropTable). Caches of table metadata compare it to
// detect stale views. It is never decremented.
type SchemaVersion struct {
	v atomic.Uint64
}

// DefaultSchemaVersion is shared by all databases opened without an explicit counter.
var DefaultSchemaVersion = &SchemaVersion{}

// Load returns the current generation. It does not take any lock.
func (s *SchemaVersion) Load() uint64 {
	return s.v.Load()
}

func (s *SchemaVersion) increment() uint64 {
	schemaUpdates.Inc()
	return s.v.Add(1)
}
