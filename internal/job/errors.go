package job

import "fmt"

type ErrorKind string

const (
	KindStore     ErrorKind = "store"
	KindDataShape ErrorKind = "data-shape"
	KindSink      ErrorKind = "sink"
)

const (
	StageDedup         = "dedup"
	StageReadStock     = "read-stock"
	StageReadSentiment = "read-sentiment"
	StageMerge         = "merge"
	StageSink          = "sink"

	StateDone   = "done"
	StateEmpty  = "empty"
	StateFailed = "failed"
)

// StageError is the only error a run ends with. Kind tells the caller whether
// the database, the data or an output target was at fault.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, kind ErrorKind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
