// Package normalize canonicalizes the scalar, list, time, and window
// values that feed identity construction. Every function is total:
// malformed input degrades to empty or passes through unchanged, never
// an error.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cadencehq/constraints/internal/types"
)

// ToText coerces a value to a trimmed string, "" for nil.
// Serves callers feeding untyped input (decoded JSON, tool output) at
// the boundary; the typed pipeline never needs it.
func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// ToList coerces a value to a list of strings.
// Scalars become single-element lists, nil becomes an empty list.
// Like ToText it exists for untyped boundary input.
func ToList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, ToText(item))
		}
		return out
	default:
		return []string{ToText(t)}
	}
}

// Time parses an H:MM or HH:MM string and returns the canonical HH:MM
// form. Anything out of range or unparsable is returned unchanged.
func Time(s string) string {
	trimmed := strings.TrimSpace(s)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return s
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return s
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return s
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Windows maps each window to a (lower-cased kind, trimmed start,
// trimmed end) tuple and returns them sorted. Stored time strings are
// not re-formatted here; that is WindowKey's job.
func Windows(ws []types.Window) []types.Window {
	if len(ws) == 0 {
		return nil
	}
	out := make([]types.Window, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.Window{
			Kind:           strings.ToLower(strings.TrimSpace(w.Kind)),
			StartTimeLocal: strings.TrimSpace(w.StartTimeLocal),
			EndTimeLocal:   strings.TrimSpace(w.EndTimeLocal),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].StartTimeLocal != out[j].StartTimeLocal {
			return out[i].StartTimeLocal < out[j].StartTimeLocal
		}
		return out[i].EndTimeLocal < out[j].EndTimeLocal
	})
	return out
}

// WindowKey builds a comparison key for a window with both times in
// canonical form. Comparison only; the stored window is untouched.
func WindowKey(w types.Window) string {
	return strings.ToLower(strings.TrimSpace(w.Kind)) + "|" +
		Time(w.StartTimeLocal) + "|" + Time(w.EndTimeLocal)
}

// StringSet trims, deduplicates, and sorts a list of strings,
// dropping empties. When fold is true values are lower-cased first.
func StringSet(values []string, fold bool) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UpperSet is StringSet with upper-casing, used for days of week
func UpperSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
