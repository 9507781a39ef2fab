package domain

import "time"

type RunOutcome string

const (
	OutcomeCompleted RunOutcome = "completed"
	OutcomeEmpty     RunOutcome = "empty"
	OutcomeFailed    RunOutcome = "failed"
)

// Summary holds aggregate statistics over a merged, labeled table.
type Summary struct {
	Rows            int      `json:"rows"`
	Symbols         []string `json:"symbols"`
	Matched         int      `json:"matched"`
	UpLabels        int      `json:"up_labels"`
	UpRatio         float64  `json:"up_ratio"`
	MeanSentiment   float64  `json:"mean_sentiment"`
	MeanPriceChange float64  `json:"mean_price_change"`
}

// RunReport describes one invocation of the labeling job. State is the last
// state the job reached: done, empty or failed.
type RunReport struct {
	RunID         string     `json:"run_id"`
	State         string     `json:"state"`
	Outcome       RunOutcome `json:"outcome"`
	FailedStage   string     `json:"failed_stage,omitempty"`
	ErrorKind     string     `json:"error_kind,omitempty"`
	Error         string     `json:"error,omitempty"`
	Deleted       int64      `json:"deleted"`
	StockRows     int        `json:"stock_rows"`
	SentimentRows int        `json:"sentiment_rows"`
	MergedRows    int        `json:"merged_rows"`
	Summary       *Summary   `json:"summary,omitempty"`
	Artifacts     []string   `json:"artifacts,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
}

func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
