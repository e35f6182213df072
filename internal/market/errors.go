package market

import "errors"

// Validation and run-level error taxonomy. All of these abort the current
// run only; none of them may escape a scheduler job or HTTP handler as an
// unhandled fault.
var (
	// ErrEmptyBatch is returned when the inbound rating batch is empty.
	ErrEmptyBatch = errors.New("empty response")

	// ErrMalformedBatch is returned when the inbound batch is not a JSON
	// array of objects. Malformed shape aborts the whole batch; malformed
	// record content merely drops the record.
	ErrMalformedBatch = errors.New("malformed batch")

	// ErrNoValidRecords is returned when validation dropped every record.
	ErrNoValidRecords = errors.New("empty after validation")

	// ErrInvalidRating is returned when recommendation tagging meets a
	// rating outside the configured bounds. Validation already excludes
	// such records, so hitting this indicates a logic bug.
	ErrInvalidRating = errors.New("invalid rating value")

	// ErrStaleRun is returned when a rating callback carries a run ID that
	// does not match the current outbound run.
	ErrStaleRun = errors.New("stale run id")
)
