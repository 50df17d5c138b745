package metrics

import "github.com/nearcap/nearcap/internal/core"

// CountError increments the counter for a single non-fatal decode
// error. It is the one place spec.md §7's "must be counted for
// observability" requirement is implemented, so every call site only
// needs to name the ErrorKind.
func CountError(kind core.ErrorKind) {
	DecodeErrorsTotal.WithLabelValues(kind.String()).Inc()
}
