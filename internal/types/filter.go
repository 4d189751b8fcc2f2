package types

// QueryFilter selects candidate entries from a storage backend.
// All fields are optional; an empty filter matches everything up to Limit.
type QueryFilter struct {
	// Text loosely matches against record names (substring, case-insensitive)
	Text string

	// Topics matches entries tagged with ANY of the given topics
	Topics []string

	// Statuses restricts results; empty means all statuses
	Statuses []Status

	// Limit caps the number of returned entries; 0 means backend default
	Limit int
}
