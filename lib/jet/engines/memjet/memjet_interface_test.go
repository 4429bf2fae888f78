package memjet

import (
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
	jettesting "github.com/ValentinKolb/isam/lib/jet/testing"
)

func Test(t *testing.T) {
	jettesting.RunEngineTests(t, "MemJet", func() jet.API {
		return NewMemJet(nil)
	})
}

func Benchmark(t *testing.B) {
	jettesting.RunEngineBenchmarks(t, "MemJet", func() jet.API {
		return NewMemJet(nil)
	})
}
