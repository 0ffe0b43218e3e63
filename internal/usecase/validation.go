package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateSetLeadStatusInput(input SetLeadStatusInput) []ValidationError {
	var errors []ValidationError

	if input.LeadID <= 0 {
		errors = append(errors, ValidationError{"id", "must be a positive integer"})
	}

	if strings.TrimSpace(input.Status) == "" {
		errors = append(errors, ValidationError{"status", "is required"})
	} else if !entity.LeadStatus(input.Status).Valid() {
		errors = append(errors, ValidationError{"status", "must be new, contacted or converted"})
	}

	return errors
}

// ValidatePageIDs checks the page list of a lead-forms sync request.
func ValidatePageIDs(pageIDs []string) []ValidationError {
	var errors []ValidationError

	if len(pageIDs) == 0 {
		errors = append(errors, ValidationError{"page_ids", "at least one page is required"})
	}
	for i, id := range pageIDs {
		if strings.TrimSpace(id) == "" {
			errors = append(errors, ValidationError{fmt.Sprintf("page_ids[%d]", i), "must not be blank"})
		}
	}

	return errors
}

func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
