package dataset

import "fmt"

// IngestError indicates an upload that cannot be read as tabular data at all.
type IngestError struct {
	Source string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("ingest: %v", e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }
