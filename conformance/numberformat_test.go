package conformance

import (
	"strconv"
	"testing"

	"github.com/corvid-labs/jsontree/jsonnumref"
	"github.com/corvid-labs/jsontree/jsonval"
	"github.com/corvid-labs/jsontree/jsonwrite"
)

// jsonwrite is the production serializer (integer-projection fast path,
// %1.15g with a %1.17g fallback). jsonnumref is an independent
// shortest-round-trip digit generator kept only as a conformance oracle.
// Neither is required to produce the same bytes as the other, but both
// must produce a string that strconv.ParseFloat reads back to the exact
// same bits the input came from.
func TestProductionAndOracleFormattersBothRoundTrip(t *testing.T) {
	values := []float64{
		0, 1, -1, 100, 0.1, 1.5, -0.5, 123.0,
		1e21, 1e-7, 3.141592653589793, 9007199254740993,
		5e-324, 1.7976931348623157e+308,
	}
	for _, f := range values {
		prod, err := jsonwrite.Write(jsonval.NewNumber(f), jsonwrite.Compact)
		if err != nil {
			t.Fatalf("jsonwrite.Write(%v): %v", f, err)
		}
		gotProd, err := strconv.ParseFloat(string(prod), 64)
		if err != nil {
			t.Fatalf("parse production output %q: %v", prod, err)
		}
		if gotProd != f {
			t.Fatalf("production formatter did not round trip %v, got %q", f, prod)
		}

		oracle, err := jsonnumref.FormatDouble(f)
		if err != nil {
			t.Fatalf("jsonnumref.FormatDouble(%v): %v", f, err)
		}
		gotOracle, err := strconv.ParseFloat(oracle, 64)
		if err != nil {
			t.Fatalf("parse oracle output %q: %v", oracle, err)
		}
		if gotOracle != f {
			t.Fatalf("oracle formatter did not round trip %v, got %q", f, oracle)
		}
	}
}

func TestOracleFormatterRejectsNonFinite(t *testing.T) {
	zero := 0.0
	inf := 1.0 / zero
	if _, err := jsonnumref.FormatDouble(inf); err != jsonnumref.ErrNotFinite {
		t.Fatalf("expected ErrNotFinite, got %v", err)
	}
}
