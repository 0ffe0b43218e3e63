package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type SetLeadStatusUseCase struct {
	Repo LeadStatusRepository
}

func NewSetLeadStatusUseCase(repo LeadStatusRepository) *SetLeadStatusUseCase {
	return &SetLeadStatusUseCase{Repo: repo}
}

func (uc *SetLeadStatusUseCase) Execute(ctx context.Context, input SetLeadStatusInput) (*SetLeadStatusOutput, error) {
	status := entity.LeadStatus(input.Status)
	if errs := ValidateSetLeadStatusInput(input); len(errs) > 0 {
		var cause error
		if !status.Valid() {
			cause = entity.ErrInvalidStatus
		}
		return nil, &DomainError{
			Code:    CodeValidation,
			Message: joinValidationErrors(errs),
			Err:     cause,
		}
	}

	if _, err := uc.Repo.FindByID(ctx, input.LeadID); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found", Err: err}
		}
		return nil, &TechnicalError{Code: CodeStoreUnavailable, Message: "failed to load lead: " + err.Error(), Err: err}
	}

	if err := uc.Repo.UpdateStatus(ctx, input.LeadID, status); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found", Err: err}
		}
		return nil, &TechnicalError{Code: CodeStoreUnavailable, Message: "failed to update lead status: " + err.Error(), Err: err}
	}

	zap.L().Info("lead status changed", zap.Int64("lead_id", input.LeadID), zap.String("status", input.Status))
	return &SetLeadStatusOutput{ID: input.LeadID, Status: status}, nil
}
