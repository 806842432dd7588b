package facematch

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MatchThreshold is the maximum Euclidean distance between two descriptors that
// still counts as the same person. Fixed policy constant, not derived at runtime.
const MatchThreshold = 0.60

// ParseDescriptor coerces a stored or incoming face descriptor into a flat
// numeric vector. Accepted shapes: []float64, []interface{}, a JSON array string,
// or a comma-separated string. Non-numeric elements become 0 rather than failing;
// anything not coercible to a flat array returns nil.
func ParseDescriptor(raw interface{}) []float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case []float64:
		if len(v) == 0 {
			return nil
		}
		out := make([]float64, len(v))
		copy(out, v)
		return out
	case []float32:
		if len(v) == 0 {
			return nil
		}
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out
	case []interface{}:
		return coerceSlice(v)
	case json.RawMessage:
		return parseDescriptorString(string(v))
	case []byte:
		return parseDescriptorString(string(v))
	case string:
		return parseDescriptorString(v)
	default:
		return nil
	}
}

func parseDescriptorString(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil
		}
		return coerceSlice(arr)
	}

	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			f = 0
		}
		out[i] = f
	}
	return out
}

func coerceSlice(arr []interface{}) []float64 {
	if len(arr) == 0 {
		return nil
	}
	out := make([]float64, len(arr))
	for i, el := range arr {
		out[i] = coerceNumber(el)
	}
	return out
}

// coerceNumber turns a single element into a float64, defaulting to 0. The
// leniency is deliberate: a corrupt element must not fail the whole descriptor.
func coerceNumber(el interface{}) float64 {
	switch n := el.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// SquaredDistance accumulates squared per-component differences between a and b,
// returning +Inf immediately once the running sum exceeds thresholdSq. Nil
// vectors and length mismatches are +Inf as well. The short-circuit is part of
// the contract: a clear non-match costs O(k), not O(n).
func SquaredDistance(a, b []float64, thresholdSq float64) float64 {
	if a == nil || b == nil || len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
		if sum > thresholdSq {
			return math.Inf(1)
		}
	}
	return sum
}

// IsMatch reports whether two parsed descriptors belong to the same person.
// A missing descriptor, an unparseable one, and a genuinely different face are
// indistinguishable here; callers log the raw inputs when this returns false.
func IsMatch(a, b []float64) bool {
	return !math.IsInf(SquaredDistance(a, b, MatchThreshold*MatchThreshold), 1)
}

// Matcher pairs the two descriptor caches: one for long-lived stored reference
// descriptors keyed by user ID, one for incoming single-use descriptors, which
// bypass caching via the empty key. The threshold is env-tunable; a
// non-positive value falls back to MatchThreshold.
type Matcher struct {
	stored    *Cache
	incoming  *Cache
	threshold float64
}

func NewMatcher(capacity int, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = MatchThreshold
	}
	return &Matcher{
		stored:    NewCache(capacity),
		incoming:  NewCache(capacity),
		threshold: threshold,
	}
}

// Verify parses both descriptors (the stored one through the cache) and runs the
// bounded-distance test.
func (m *Matcher) Verify(userID string, storedRaw, incomingRaw interface{}) bool {
	ref := m.stored.GetOrParse(userID, storedRaw)
	probe := m.incoming.GetOrParse("", incomingRaw)
	return !math.IsInf(SquaredDistance(ref, probe, m.threshold*m.threshold), 1)
}

// StoredCache exposes the reference-descriptor cache, mainly for tests.
func (m *Matcher) StoredCache() *Cache {
	return m.stored
}
