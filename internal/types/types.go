package types

import (
	"time"
)

// Status classifies the outcome of a single executor invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Item is one retrieved record: a paper, a post, a tweet, a research answer.
// Data holds the source-specific fields.
type Item struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// FetchResult is the outcome of one executor in a single run. Every enabled
// executor produces exactly one, failures included.
type FetchResult struct {
	Executor       string                 `json:"executor"`
	Status         Status                 `json:"status"`
	Items          []*Item                `json:"items"`
	Error          string                 `json:"error,omitempty"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        time.Time              `json:"end_time"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	Attempts       int                    `json:"attempts"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

func (r *FetchResult) OutputCount() int {
	return len(r.Items)
}

func (r *FetchResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial
}

// RunReport aggregates all FetchResults of one orchestration run.
type RunReport struct {
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	TotalExecutors int            `json:"total_executors"`
	Successful     int            `json:"successful"`
	Failed         int            `json:"failed"`
	TotalItems     int            `json:"total_items"`
	Duplicates     int            `json:"duplicates"`
	Results        []*FetchResult `json:"results"`
}
