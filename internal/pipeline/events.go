package pipeline

// Status of one cursor as it moves through the pipeline.
type Status int

const (
	StatusPending Status = iota
	StatusRendering
	StatusAssembling
	StatusDone
	StatusSkipped // output already newer than the source
	StatusFailed
)

// String returns the display name for a status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRendering:
		return "RENDERING"
	case StatusAssembling:
		return "ASSEMBLING"
	case StatusDone:
		return "DONE"
	case StatusSkipped:
		return "UP TO DATE"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Event reports a status change for one cursor. Events exist for
// presentation only; ordering across cursors carries no meaning beyond
// the sequential processing order.
type Event struct {
	Name    string // cursor name (SVG stem)
	Status  Status
	Err     error  // set when Status is StatusFailed
	Warning string // set for non-fatal source parse issues
}

// Failure pairs a cursor name with the error that stopped it.
type Failure struct {
	Name string
	Err  error
}

// Summary is the outcome of one batch run.
type Summary struct {
	Generated int
	Skipped   int
	Failed    []Failure
}

// OK reports whether every cursor was produced or already fresh.
func (s Summary) OK() bool {
	return len(s.Failed) == 0
}
