package leadforms

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type FormsAPI interface {
	ListForms(ctx context.Context, pageID string) ([]Form, *Paging, error)
	ListLeads(ctx context.Context, formID string) ([]Submission, *Paging, error)
}

// Source reads every submission of every form of the configured pages.
// Only the first page of each listing is read.
type Source struct {
	API     FormsAPI
	PageIDs []string

	// OnTruncated, when set, is called for each listing that reported a next
	// page. resource is "forms" or "leads".
	OnTruncated func(resource string)
}

func NewSource(api FormsAPI, pageIDs []string) *Source {
	return &Source{API: api, PageIDs: pageIDs}
}

func (s *Source) Kind() entity.Source {
	return entity.SourceExternalAPI
}

func (s *Source) Read(ctx context.Context, sink entity.RecordSink) error {
	for _, pageID := range s.PageIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		forms, paging, err := s.API.ListForms(ctx, pageID)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return unauthorized(err)
			}
			sink.Fail("page "+pageID, err.Error())
			continue
		}
		s.truncated("forms", pageID, paging)

		for _, form := range forms {
			if err := s.readForm(ctx, form.ID, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// readForm only returns errors that must stop the whole run.
func (s *Source) readForm(ctx context.Context, formID string, sink entity.RecordSink) error {
	leads, paging, err := s.API.ListLeads(ctx, formID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return unauthorized(err)
		}
		sink.Fail("form "+formID, err.Error())
		return nil
	}
	s.truncated("leads", formID, paging)

	for _, sub := range leads {
		if err := sink.Record(ctx, toRecord(formID, sub)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) truncated(resource, parentID string, paging *Paging) {
	if paging == nil || paging.Next == "" {
		return
	}
	zap.L().Warn("lead forms listing has more pages; only the first one was read",
		zap.String("resource", resource),
		zap.String("parent_id", parentID),
	)
	if s.OnTruncated != nil {
		s.OnTruncated(resource)
	}
}

func toRecord(formID string, sub Submission) entity.RawRecord {
	if sub.FormID != "" {
		formID = sub.FormID
	}
	fields := make([]entity.RawField, 0, len(sub.FieldData))
	for _, f := range sub.FieldData {
		fields = append(fields, entity.RawField{Name: f.Name, Values: f.Values})
	}
	return entity.RawRecord{
		Source:      entity.SourceExternalAPI,
		ExternalID:  sub.ID,
		FormID:      formID,
		CreatedTime: sub.CreatedTime,
		Fields:      fields,
		Payload:     sub.Raw,
	}
}

func unauthorized(err error) error {
	return &usecase.TechnicalError{
		Code:    usecase.CodeSourceUnauthorized,
		Message: "cannot authenticate with the lead forms API",
		Err:     err,
	}
}
