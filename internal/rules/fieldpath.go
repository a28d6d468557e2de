// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Field path resolution over submission fields.
 *
 * Paths are dotted keys with optional array indices, e.g. `age`,
 * `vitals.bp.systolic`, `visits[1].date`. Keys match exactly first and then
 * case-insensitively, because structured data produced from free text does
 * not reliably preserve the casing used by rule authors. The fallback walks
 * keys in sorted order so the chosen key is deterministic.
 */

// ResolveResult contains the resolved value.
type ResolveResult struct {
	Value any  // resolved value (nil for JSON null)
	Found bool // true if path resolved, even to a null value
}

// ParseFieldPath splits a dotted path with [n] indices into segments.
func ParseFieldPath(path string) ([]types.PathSegment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty field path", types.ErrUnsupportedCondition)
	}

	var segments []types.PathSegment
	for _, part := range strings.Split(path, ".") {
		key := part
		var indices []int
		if open := strings.IndexByte(part, '['); open >= 0 {
			key = part[:open]
			rest := part[open:]
			for rest != "" {
				closeIdx := strings.IndexByte(rest, ']')
				if rest[0] != '[' || closeIdx < 0 {
					return nil, fmt.Errorf("%w: malformed index in %q", types.ErrUnsupportedCondition, path)
				}
				n, err := strconv.Atoi(rest[1:closeIdx])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: malformed index in %q", types.ErrUnsupportedCondition, path)
				}
				indices = append(indices, n)
				rest = rest[closeIdx+1:]
			}
		}
		if key == "" {
			return nil, fmt.Errorf("%w: empty key in %q", types.ErrUnsupportedCondition, path)
		}
		segments = append(segments, types.PathSegment{Key: key})
		for _, n := range indices {
			segments = append(segments, types.PathSegment{Index: n, IsIndex: true})
		}
	}

	if len(segments) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	return segments, nil
}

// FormatFieldPath renders segments back into dotted form.
func FormatFieldPath(path []types.PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}

// ResolveField traverses fields following path segments.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrFieldNotFound if the path does not exist.
func ResolveField(path []types.PathSegment, fields map[string]any) (ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return ResolveResult{}, types.ErrPathTooDeep
	}
	if len(path) == 0 {
		return ResolveResult{}, types.ErrFieldNotFound
	}

	var current any = fields
	for _, seg := range path {
		switch v := current.(type) {
		case map[string]any:
			if seg.IsIndex {
				return ResolveResult{}, types.ErrFieldNotFound
			}
			val, ok := lookupKey(v, seg.Key)
			if !ok {
				return ResolveResult{}, types.ErrFieldNotFound
			}
			current = val
		case []any:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
				return ResolveResult{}, types.ErrFieldNotFound
			}
			current = v[seg.Index]
		default:
			// nil or scalar with path remaining
			return ResolveResult{}, types.ErrFieldNotFound
		}
	}

	return ResolveResult{Value: current, Found: true}, nil
}

// lookupKey finds key exactly, then case-insensitively in sorted key order.
func lookupKey(m map[string]any, key string) (any, bool) {
	if val, ok := m[key]; ok {
		return val, true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return m[k], true
		}
	}
	return nil, false
}
