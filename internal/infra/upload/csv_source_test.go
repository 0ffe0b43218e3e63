package upload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

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

func read(t *testing.T, input string) (*recordingSink, error) {
	t.Helper()
	sink := &recordingSink{}
	err := NewCSVSource(strings.NewReader(input), 0).Read(context.Background(), sink)
	return sink, err
}

func TestCSVSource_HeaderDrivenColumns(t *testing.T) {
	sink, err := read(t, " Email , Name,CITY\na@x.com,Ann,Lisbon\nb@x.com,Bob\n")
	require.NoError(t, err)
	require.Len(t, sink.records, 2)
	assert.Empty(t, sink.failures)

	assert.Equal(t, entity.SourceBulkUpload, sink.records[0].Source)
	assert.Equal(t, []entity.Column{
		{Name: "email", Value: "a@x.com"},
		{Name: "name", Value: "Ann"},
		{Name: "city", Value: "Lisbon"},
	}, sink.records[0].Columns)

	// short rows keep every header column
	assert.Equal(t, entity.Column{Name: "city", Value: ""}, sink.records[1].Columns[2])
}

func TestCSVSource_StripsByteOrderMark(t *testing.T) {
	sink, err := read(t, "\ufeffemail\na@x.com\n")
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "email", sink.records[0].Columns[0].Name)
}

func TestCSVSource_KeepsReplacementCharacter(t *testing.T) {
	sink, err := read(t, "name,email\nAn\ufffdn,a@x.com\n")
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "An\ufffdn", sink.records[0].Columns[0].Value)
}

func TestCSVSource_DecodesUTF16WithBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("email,name\na@x.com,Ann\n")
	require.NoError(t, err)

	sink, err := read(t, encoded)
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, []entity.Column{
		{Name: "email", Value: "a@x.com"},
		{Name: "name", Value: "Ann"},
	}, sink.records[0].Columns)
}

func TestCSVSource_EmptyLinesDroppedDelimiterRowsKept(t *testing.T) {
	sink, err := read(t, "name,email\n\n,\nAnn,a@x.com\n")
	require.NoError(t, err)
	require.Len(t, sink.records, 2)
	assert.Equal(t, []entity.Column{{Name: "name", Value: ""}, {Name: "email", Value: ""}}, sink.records[0].Columns)
	assert.Equal(t, "Ann", sink.records[1].Columns[0].Value)
}

func TestCSVSource_BadRowIsSkipped(t *testing.T) {
	sink, err := read(t, "name,email\nAnn,a@x.com\nBo\"b,b@x.com\nCid,c@x.com\n")
	require.NoError(t, err)
	require.Len(t, sink.failures, 1)
	assert.Equal(t, "row 3", sink.failures[0].where)
	require.Len(t, sink.records, 2)
	assert.Equal(t, "Cid", sink.records[1].Columns[0].Value)
}

func TestCSVSource_FatalInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\n"},
		{"invalid utf-8", "name\nBob\x80\n"},
		{"blank header", ",,\na,b,c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := read(t, tt.input)
			require.Error(t, err)
			assert.Equal(t, usecase.CodeUploadDecodeFailed, usecase.ErrorCode(err))
			assert.Empty(t, sink.records)
		})
	}
}

func TestCSVSource_TooLarge(t *testing.T) {
	input := "name\n" + strings.Repeat("x", 100) + "\n"
	err := NewCSVSource(strings.NewReader(input), 10).Read(context.Background(), &recordingSink{})
	require.Error(t, err)
	assert.Equal(t, usecase.CodeUploadDecodeFailed, usecase.ErrorCode(err))
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	sink, err := read(t, "name,email\n")
	require.NoError(t, err)
	assert.Empty(t, sink.records)
}

func TestCSVSource_SinkErrorStopsReading(t *testing.T) {
	stop := errors.New("store down")
	sink := &recordingSink{recordErr: stop}
	err := NewCSVSource(strings.NewReader("name\nA\nB\n"), 0).Read(context.Background(), sink)
	assert.ErrorIs(t, err, stop)
	assert.Len(t, sink.records, 1)
}
