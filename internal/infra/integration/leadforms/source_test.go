package leadforms

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type fakeAPI struct {
	forms     map[string][]Form
	formErr   map[string]error
	leads     map[string][]Submission
	leadErr   map[string]error
	formsNext bool
}

func (f *fakeAPI) ListForms(_ context.Context, pageID string) ([]Form, *Paging, error) {
	if err := f.formErr[pageID]; err != nil {
		return nil, nil, err
	}
	var p *Paging
	if f.formsNext {
		p = &Paging{Next: "more"}
	}
	return f.forms[pageID], p, nil
}

func (f *fakeAPI) ListLeads(_ context.Context, formID string) ([]Submission, *Paging, error) {
	if err := f.leadErr[formID]; err != nil {
		return nil, nil, err
	}
	return f.leads[formID], nil, nil
}

type failure struct{ where, message string }

type recordingSink struct {
	records   []entity.RawRecord
	failures  []failure
	recordErr error
}

func (s *recordingSink) Record(_ context.Context, rec entity.RawRecord) error {
	s.records = append(s.records, rec)
	return s.recordErr
}

func (s *recordingSink) Fail(where, message string) {
	s.failures = append(s.failures, failure{where, message})
}

func submission(id string) Submission {
	return Submission{
		ID:          id,
		CreatedTime: "2026-01-01T00:00:00+0000",
		FieldData:   []FieldDatum{{Name: "email", Values: json.RawMessage(`["` + id + `@x.com"]`)}},
		Raw:         map[string]any{"id": id},
	}
}

func TestSource_ReadsAllPagesAndForms(t *testing.T) {
	api := &fakeAPI{
		forms: map[string][]Form{
			"p1": {{ID: "f1"}, {ID: "f2"}},
			"p2": {{ID: "f3"}},
		},
		leads: map[string][]Submission{
			"f1": {submission("a"), submission("b")},
			"f3": {submission("c")},
		},
	}
	sink := &recordingSink{}

	err := NewSource(api, []string{"p1", "p2"}).Read(context.Background(), sink)
	require.NoError(t, err)
	require.Len(t, sink.records, 3)
	assert.Empty(t, sink.failures)

	first := sink.records[0]
	assert.Equal(t, entity.SourceExternalAPI, first.Source)
	assert.Equal(t, "a", first.ExternalID)
	assert.Equal(t, "f1", first.FormID)
	assert.Equal(t, "email", first.Fields[0].Name)
	assert.Equal(t, "c", sink.records[2].ExternalID)
	assert.Equal(t, "f3", sink.records[2].FormID)
}

func TestSource_PageFailureIsIsolated(t *testing.T) {
	api := &fakeAPI{
		forms:   map[string][]Form{"p2": {{ID: "f3"}}},
		formErr: map[string]error{"p1": errors.New("timeout")},
		leads:   map[string][]Submission{"f3": {submission("c")}},
	}
	sink := &recordingSink{}

	require.NoError(t, NewSource(api, []string{"p1", "p2"}).Read(context.Background(), sink))
	require.Len(t, sink.failures, 1)
	assert.Equal(t, "page p1", sink.failures[0].where)
	assert.Contains(t, sink.failures[0].message, "timeout")
	assert.Len(t, sink.records, 1)
}

func TestSource_FormFailureIsIsolated(t *testing.T) {
	api := &fakeAPI{
		forms:   map[string][]Form{"p1": {{ID: "f1"}, {ID: "f2"}}},
		leads:   map[string][]Submission{"f2": {submission("b")}},
		leadErr: map[string]error{"f1": errors.New("bad gateway")},
	}
	sink := &recordingSink{}

	require.NoError(t, NewSource(api, []string{"p1"}).Read(context.Background(), sink))
	require.Len(t, sink.failures, 1)
	assert.Equal(t, "form f1", sink.failures[0].where)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "b", sink.records[0].ExternalID)
}

func TestSource_UnauthorizedAbortsRun(t *testing.T) {
	api := &fakeAPI{
		forms:   map[string][]Form{"p1": {{ID: "f1"}}},
		leadErr: map[string]error{"f1": ErrUnauthorized},
	}

	err := NewSource(api, []string{"p1", "p2"}).Read(context.Background(), &recordingSink{})
	require.Error(t, err)
	assert.Equal(t, usecase.CodeSourceUnauthorized, usecase.ErrorCode(err))
}

func TestSource_SinkErrorStopsReading(t *testing.T) {
	api := &fakeAPI{
		forms: map[string][]Form{"p1": {{ID: "f1"}}},
		leads: map[string][]Submission{"f1": {submission("a"), submission("b")}},
	}
	stop := errors.New("store down")
	sink := &recordingSink{recordErr: stop}

	err := NewSource(api, []string{"p1"}).Read(context.Background(), sink)
	assert.ErrorIs(t, err, stop)
	assert.Len(t, sink.records, 1)
}

func TestSource_ReportsTruncatedListings(t *testing.T) {
	api := &fakeAPI{
		forms:     map[string][]Form{"p1": {}},
		formsNext: true,
	}
	var truncated []string
	src := NewSource(api, []string{"p1"})
	src.OnTruncated = func(resource string) { truncated = append(truncated, resource) }

	require.NoError(t, src.Read(context.Background(), &recordingSink{}))
	assert.Equal(t, []string{"forms"}, truncated)
}
