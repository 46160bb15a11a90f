package events

import (
	"time"
)

// Event is a planning fact published to downstream consumers
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
}

const (
	FeasibilityCheckedEvent = "feasibility.checked"
	ScheduleCommittedEvent  = "schedule.committed"
	ScheduleConflictEvent   = "schedule.conflict"
	RisksSyncedEvent        = "risks.synced"
)

// FeasibilityChecked is emitted after every completed feasibility check
type FeasibilityChecked struct {
	Feasible        bool      `json:"feasible"`
	ConfidenceScore float64   `json:"confidence_score"`
	RequestedDate   time.Time `json:"requested_date"`
	ItemCount       int       `json:"item_count"`
}

// ScheduleCommitted is emitted after an optimization run commits
type ScheduleCommitted struct {
	BaseVersion     int64  `json:"base_version"`
	ScheduleCount   int    `json:"schedule_count"`
	AssignmentCount int    `json:"assignment_count"`
	Status          string `json:"status"`
}

// ScheduleConflict is emitted when a commit loses the optimistic
// concurrency race and the retry budget is exhausted
type ScheduleConflict struct {
	BaseVersion int64 `json:"base_version"`
	Attempts    int   `json:"attempts"`
}

// RisksSynced is emitted after a risk feed sync lands new records
type RisksSynced struct {
	Count int `json:"count"`
}

// BaseEvent is the common implementation of Event
type BaseEvent struct {
	EventType string
	Stream    string
	EventData interface{}
	EventTime time.Time
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewEvent wraps a payload in a BaseEvent stamped with the current time
func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: time.Now().UTC(),
	}
}
