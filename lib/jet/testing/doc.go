// Package testing provides standardised tests and benchmarks for
// engine implementations that satisfy the jet.API interface.
//
// The package contains:
//   - testing: A conformance suite for the engine contract (handles, status codes,
//     exclusive tables, nested transactions, key constraints)
//   - benchmark: Performance tests for the record operations the ISAM layer issues
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() jet.API {
//		return NewMyEngine()
//	}
//
//	// Running the standard test suite
//	jettesting.RunEngineTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	jettesting.RunEngineBenchmarks(b, "MyEngine", factory)
package testing
