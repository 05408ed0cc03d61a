package model

import (
	"encoding/json"
	"time"
)

// Dataset is the whole persistent document. The sparringSessions and
// weeklyReports arrays are opaque to this core and round-trip unchanged.
type Dataset struct {
	Items            []Item            `json:"items"`
	Reviews          []ReviewRecord    `json:"reviews"`
	SchedulingStates []SchedulingState `json:"schedulingStates"`
	Sessions         []Session         `json:"sessions"`
	SparringSessions []json.RawMessage `json:"sparringSessions"`
	WeeklyReports    []json.RawMessage `json:"weeklyReports"`
	LastUpdated      time.Time         `json:"lastUpdated"`
}

// NewDataset returns an empty dataset with all arrays allocated.
func NewDataset() *Dataset {
	return &Dataset{
		Items:            []Item{},
		Reviews:          []ReviewRecord{},
		SchedulingStates: []SchedulingState{},
		Sessions:         []Session{},
		SparringSessions: []json.RawMessage{},
		WeeklyReports:    []json.RawMessage{},
	}
}

// DecodeDataset parses a persisted document, normalizing each top-level
// array independently: a missing or malformed field becomes an empty array
// instead of failing the whole load. Only a document that is not a JSON
// object at all is an error.
func DecodeDataset(data []byte) (*Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ds := NewDataset()
	decodeField(raw, "items", &ds.Items)
	decodeField(raw, "reviews", &ds.Reviews)
	decodeField(raw, "schedulingStates", &ds.SchedulingStates)
	decodeField(raw, "sessions", &ds.Sessions)
	decodeField(raw, "sparringSessions", &ds.SparringSessions)
	decodeField(raw, "weeklyReports", &ds.WeeklyReports)

	if b, ok := raw["lastUpdated"]; ok {
		json.Unmarshal(b, &ds.LastUpdated)
	}

	ds.Normalize()
	return ds, nil
}

// decodeField fills dst from raw[key], leaving dst's existing empty value
// in place when the field is absent or does not parse.
func decodeField[T any](raw map[string]json.RawMessage, key string, dst *[]T) {
	b, ok := raw[key]
	if !ok {
		return
	}
	var parsed []T
	if err := json.Unmarshal(b, &parsed); err != nil || parsed == nil {
		return
	}
	*dst = parsed
}

// Normalize replaces nil arrays with empty ones so later code never has to
// nil-check, and so the document always serializes with every array present.
func (ds *Dataset) Normalize() {
	if ds.Items == nil {
		ds.Items = []Item{}
	}
	if ds.Reviews == nil {
		ds.Reviews = []ReviewRecord{}
	}
	if ds.SchedulingStates == nil {
		ds.SchedulingStates = []SchedulingState{}
	}
	if ds.Sessions == nil {
		ds.Sessions = []Session{}
	}
	if ds.SparringSessions == nil {
		ds.SparringSessions = []json.RawMessage{}
	}
	if ds.WeeklyReports == nil {
		ds.WeeklyReports = []json.RawMessage{}
	}
}
