package entity

import (
	"context"
	"encoding/json"
)

// RawField is one entry of a lead-forms submission. Values keeps the
// original JSON so the normalizer can decode whatever shape was sent.
type RawField struct {
	Name   string          `json:"name"`
	Values json.RawMessage `json:"values"`
}

// Column is one cell of an uploaded row, in header order.
type Column struct {
	Name  string
	Value string
}

// RawRecord is what a source yields before normalization. API records
// carry Fields, CSV records carry Columns.
type RawRecord struct {
	Source      Source
	ExternalID  string
	FormID      string
	CreatedTime string
	Fields      []RawField
	Columns     []Column
	// Payload is the untouched original record, kept for audit.
	Payload map[string]any
}

// RecordSink receives the output of a LeadSource. Fail reports a
// skippable problem (one row, one form) without stopping the read. An
// error from Record aborts the read and must be returned by the source
// unchanged.
type RecordSink interface {
	Record(ctx context.Context, rec RawRecord) error
	Fail(where, message string)
}

// LeadSource streams raw records into a sink. A returned error is fatal
// for the whole run.
type LeadSource interface {
	Kind() Source
	Read(ctx context.Context, sink RecordSink) error
}
