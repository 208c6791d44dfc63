package in

import (
	"context"

	"storefront/internal/modules/navigation/dto"
	navin "storefront/internal/modules/navigation/port/in"
)

type CLIHandler struct {
	usecase navin.Usecase
}

func NewCLIHandler(usecase navin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.SessionOutput, error) {
	return h.usecase.History(ctx, dto.HistoryInput{Limit: limit})
}

func (h CLIHandler) Report(ctx context.Context, limit int) (dto.ReportOutput, error) {
	return h.usecase.Report(ctx, dto.HistoryInput{Limit: limit})
}
