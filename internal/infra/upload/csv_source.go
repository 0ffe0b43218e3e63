package upload

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const DefaultMaxBytes int64 = 10 << 20

// CSVSource reads a delimited upload: one header row, then data rows. The
// stream is consumed once.
type CSVSource struct {
	r        io.Reader
	maxBytes int64
}

func NewCSVSource(r io.Reader, maxBytes int64) *CSVSource {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &CSVSource{r: r, maxBytes: maxBytes}
}

func (s *CSVSource) Kind() entity.Source {
	return entity.SourceBulkUpload
}

func (s *CSVSource) Read(ctx context.Context, sink entity.RecordSink) error {
	data, err := s.decode()
	if err != nil {
		return err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return decodeFailed("upload is empty", nil)
	}
	if err != nil {
		return decodeFailed("cannot read header row", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if !hasColumnName(header) {
		return decodeFailed("header row has no column names", nil)
	}

	row := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		row++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				sink.Fail(fmt.Sprintf("row %d", row), perr.Err.Error())
				continue
			}
			return decodeFailed("cannot read upload", err)
		}
		if err := sink.Record(ctx, entity.RawRecord{
			Source:  entity.SourceBulkUpload,
			Columns: columns(header, fields),
		}); err != nil {
			return err
		}
	}
}

// decode reads the whole upload and returns it as UTF-8 without a BOM.
// UTF-16 input is accepted when it starts with a byte order mark.
func (s *CSVSource) decode() ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(s.r, s.maxBytes+1))
	if err != nil {
		return nil, decodeFailed("cannot read upload", err)
	}
	if int64(len(raw)) > s.maxBytes {
		return nil, decodeFailed(fmt.Sprintf("upload exceeds %d bytes", s.maxBytes), nil)
	}

	if bytes.HasPrefix(raw, utf16BE) || bytes.HasPrefix(raw, utf16LE) {
		raw, _, err = transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil {
			return nil, decodeFailed("upload is not valid UTF-16 text", err)
		}
	} else {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return nil, decodeFailed("upload is not valid UTF-8 text", nil)
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, decodeFailed("upload is empty", nil)
	}
	return raw, nil
}

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	utf16BE = []byte{0xFE, 0xFF}
	utf16LE = []byte{0xFF, 0xFE}
)

func columns(header, fields []string) []entity.Column {
	cols := make([]entity.Column, 0, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		value := ""
		if i < len(fields) {
			value = fields[i]
		}
		cols = append(cols, entity.Column{Name: name, Value: value})
	}
	return cols
}

func hasColumnName(header []string) bool {
	for _, h := range header {
		if h != "" {
			return true
		}
	}
	return false
}

func decodeFailed(msg string, err error) error {
	if err != nil {
		err = eris.Wrap(err, msg)
	} else {
		err = eris.New(msg)
	}
	return &usecase.TechnicalError{
		Code:    usecase.CodeUploadDecodeFailed,
		Message: msg,
		Err:     err,
	}
}
