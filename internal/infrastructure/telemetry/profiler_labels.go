package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys attached to profiling samples.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength caps label values so a single runaway value
// cannot blow up Pyroscope's memory.
const MaxLabelValueLength = 128

// highCardinalityLabels are keys that sanitizeLabels drops outright.
// Per-request or per-entity identifiers create one profile series per
// value, which Pyroscope cannot absorb.
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"account_id": true,
	"contact_id": true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given labels attached to its
// profiling samples. The labels map is copied, so the caller may reuse
// it after the call.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "AccountHandler",
//	    "operation":  "EnrichAccount",
//	}, func(c context.Context) {
//	    enrichAccount(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := copyAndSanitize(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is the same as WithProfilingLabels but goes through
// Go's native pprof API. Pyroscope's TagWrapper and pprof.Do produce
// identical label behavior; use this variant when the samples must be
// visible to standard pprof tooling.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := copyAndSanitize(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

func copyAndSanitize(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	// Copy before sanitizing in case the caller mutates the map
	// concurrently.
	clone := make(map[string]string, len(labels))
	maps.Copy(clone, labels)
	return sanitizeLabels(clone)
}

// sanitizeLabels turns a label map into the flat key/value slice the
// profiling APIs take. High-cardinality keys and empty entries are
// dropped, over-long values truncated, and keys normalized to
// snake_case. Keys are emitted in sorted order so output is stable.
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		if clean := sanitizeLabelKey(key); clean != "" {
			pairs = append(pairs, clean, value)
		}
	}
	return pairs
}

// sanitizeLabelKey lowercases the key, maps spaces and dashes to
// underscores, and strips everything outside [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r == ' ', r == '-':
			return '_'
		default:
			return -1
		}
	}, key)
}
