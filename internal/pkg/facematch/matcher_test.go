package facematch

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseDescriptor(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want []float64
	}{
		{"float slice", []float64{0.1, 0.2, 0.3}, []float64{0.1, 0.2, 0.3}},
		{"json string", `[0.5, -0.25, 1]`, []float64{0.5, -0.25, 1}},
		{"csv string", "0.5, -0.25, 1", []float64{0.5, -0.25, 1}},
		{"interface slice", []interface{}{1.0, 2.0}, []float64{1, 2}},
		{"non-numeric element coerces to zero", `[0.5, "abc", 1]`, []float64{0.5, 0, 1}},
		{"csv garbage coerces to zero", "0.5,x,1", []float64{0.5, 0, 1}},
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"null string", "null", nil},
		{"malformed json", "[0.5,", nil},
		{"unsupported type", 42, nil},
		{"raw message", json.RawMessage(`[1,2]`), []float64{1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseDescriptor(c.in)
			if len(got) != len(c.want) {
				t.Fatalf("ParseDescriptor(%v) = %v, want %v", c.in, got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("ParseDescriptor(%v)[%d] = %v, want %v", c.in, i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestIsMatchSelf(t *testing.T) {
	v := []float64{0.1, 0.2, 0.3, 0.4}
	if !IsMatch(v, v) {
		t.Fatal("a vector must always match itself")
	}
}

func TestSquaredDistanceSymmetry(t *testing.T) {
	a := []float64{0.1, 0.5, -0.3}
	b := []float64{0.2, 0.4, -0.1}
	thresholdSq := MatchThreshold * MatchThreshold
	if SquaredDistance(a, b, thresholdSq) != SquaredDistance(b, a, thresholdSq) {
		t.Fatal("distance must be symmetric")
	}
}

func TestEarlyExitMatchesFullSum(t *testing.T) {
	// Vectors far enough apart that the true squared distance exceeds the
	// threshold: the early-exit path must report +Inf exactly like a full
	// compute-then-compare would.
	a := make([]float64, 128)
	b := make([]float64, 128)
	for i := range a {
		a[i] = 0.0
		b[i] = 0.1
	}
	var full float64
	for i := range a {
		d := a[i] - b[i]
		full += d * d
	}
	thresholdSq := MatchThreshold * MatchThreshold
	if full <= thresholdSq {
		t.Fatal("test setup: vectors too close")
	}
	got := SquaredDistance(a, b, thresholdSq)
	if !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf for clear non-match, got %v", got)
	}
	if IsMatch(a, b) {
		t.Fatal("clear non-match must not match")
	}
}

func TestLengthMismatchNoMatch(t *testing.T) {
	if IsMatch([]float64{1, 2, 3}, []float64{1, 2}) {
		t.Fatal("length mismatch must be a non-match")
	}
}

func TestNilVectorsNoMatch(t *testing.T) {
	if IsMatch(nil, []float64{1}) || IsMatch([]float64{1}, nil) || IsMatch(nil, nil) {
		t.Fatal("nil vectors must never match")
	}
}

func TestMatcherVerify(t *testing.T) {
	m := NewMatcher(10, MatchThreshold)
	stored := `[0.1, 0.2, 0.3]`
	if !m.Verify("user-1", stored, []float64{0.1, 0.2, 0.3}) {
		t.Fatal("identical descriptors must verify")
	}
	// Second call must hit the cache: feeding garbage as the stored raw value
	// still verifies because the parsed reference is already cached.
	if !m.Verify("user-1", "not-parseable-[", []float64{0.1, 0.2, 0.3}) {
		t.Fatal("cached reference descriptor must be reused without re-parsing")
	}
	if m.Verify("user-2", stored, []float64{5, 5, 5}) {
		t.Fatal("distant descriptor must not verify")
	}
	if m.Verify("user-3", nil, []float64{0.1, 0.2, 0.3}) {
		t.Fatal("missing stored descriptor must not verify")
	}
}

func TestMatcherThresholdTunable(t *testing.T) {
	stored := []float64{0, 0, 0}
	probe := []float64{1, 0, 0} // distance 1.0, beyond the default threshold

	if NewMatcher(10, 0).Verify("user-1", stored, probe) {
		t.Fatal("zero threshold must fall back to the default and reject")
	}
	if !NewMatcher(10, 1.5).Verify("user-1", stored, probe) {
		t.Fatal("widened threshold must accept a distance-1.0 pair")
	}
}
