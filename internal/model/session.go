package model

import "time"

type EntryType string

const (
	EntryTypeManual EntryType = "manual"
	EntryTypeTimer  EntryType = "timer"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeManual, EntryTypeTimer:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

// Open reports whether a session in this status counts against the single
// running session rule.
func (s Status) Open() bool {
	switch s {
	case StatusActive, StatusPaused:
		return true
	case StatusCompleted:
		return false
	default:
		return false
	}
}

// Session is one tracked interval of time against an activity. Duration is
// net seconds and is only set once the session is completed.
type Session struct {
	ID            string       `json:"id"`
	ActivityID    string       `json:"activityId"`
	ActivityName  string       `json:"activityName,omitempty"`
	EntryType     EntryType    `json:"entryType"`
	Status        Status       `json:"status"`
	StartTime     time.Time    `json:"startTime"`
	EndTime       *time.Time   `json:"endTime,omitempty"`
	LastHeartbeat time.Time    `json:"lastHeartbeat"`
	PauseHistory  PauseHistory `json:"pauseHistory"`
	Duration      *int64       `json:"duration,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

