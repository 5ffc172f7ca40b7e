package search

import (
	"time"

	"hypertune/internal/model"
)

// Trial records one evaluated configuration.
type Trial struct {
	Number  int                 `json:"number"`
	Params  model.Configuration `json:"params"`
	Loss    float64             `json:"loss"`
	Elapsed time.Duration       `json:"elapsed"`
}

// Result is the outcome of one family's search: the winning configuration,
// the model refit on the full dataset, the best observed loss, and the trial
// log. It is immutable once produced.
type Result struct {
	Family     string
	Strategy   string
	BestParams model.Configuration
	BestLoss   float64
	Model      model.Regressor
	Trials     []Trial
}
