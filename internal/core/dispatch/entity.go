package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"plotlines.app/internal/ports"
)

// Outcome is what a cycle did with one combination
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeAborted   Outcome = "aborted"
)

// Cycle results reported to metrics
const (
	CycleResultSuccess  = "success"
	CycleResultAborted  = "aborted"
	CycleResultConflict = "conflict"
)

// DeliverySummary counts send attempts for one run
type DeliverySummary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Attempted returns the number of ledger rows written
func (s DeliverySummary) Attempted() int {
	return s.Sent + s.Failed
}

// CycleSummary is the operator view of one dispatch cycle
type CycleSummary struct {
	Date             string        `json:"date"`
	Combinations     int           `json:"combinations"`
	Skipped          int           `json:"skipped"`
	Completed        int           `json:"completed"`
	Failed           int           `json:"failed"`
	Aborted          int           `json:"aborted"`
	Sent             int           `json:"sent"`
	FailedDeliveries int           `json:"failed_deliveries"`
	Errors           []string      `json:"errors"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

func newCycleSummary(date string, startedAt time.Time) *CycleSummary {
	return &CycleSummary{
		Date:      date,
		Errors:    []string{},
		StartedAt: startedAt,
	}
}

// MarshalJSON renders the duration as a Go duration string
func (s CycleSummary) MarshalJSON() ([]byte, error) {
	type plain CycleSummary
	return json.Marshal(struct {
		plain
		Duration string `json:"duration"`
	}{
		plain:    plain(s),
		Duration: s.Duration.String(),
	})
}

func (s *CycleSummary) apply(result combinationResult) {
	switch result.outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeCompleted:
		s.Completed++
	case OutcomeFailed:
		s.Failed++
	case OutcomeAborted:
		s.Aborted++
	}
	s.Sent += result.delivery.Sent
	s.FailedDeliveries += result.delivery.Failed
	if result.problem != "" {
		s.Errors = append(s.Errors, fmt.Sprintf("%s: %s", combinationLabel(result.combination), result.problem))
	}
}

// combinationResult is the explicit hand-off between per-combination
// processing and cycle aggregation
type combinationResult struct {
	combination *ports.CombinationData
	outcome     Outcome
	delivery    DeliverySummary
	// problem is a non-fatal error worth surfacing in the summary
	problem string
	// fatal aborts the whole cycle
	fatal error
}

func combinationLabel(c *ports.CombinationData) string {
	if c == nil {
		return "unknown"
	}
	return c.StationCode + "/" + c.AuthorKey
}
