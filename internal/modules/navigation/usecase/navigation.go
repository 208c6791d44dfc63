package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/modules/navigation/domain"
	"storefront/internal/modules/navigation/dto"
	navin "storefront/internal/modules/navigation/port/in"
	navout "storefront/internal/modules/navigation/port/out"
	apperrors "storefront/internal/platform/errors"
	"storefront/internal/platform/markdown"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	reportSchemaVersion = 1
)

var reportColumns = []string{"Started", "Target", "From", "Outcome", "Duration (ms)", "Error"}

type Interactor struct {
	journal navout.SessionJournal
	reports navout.ReportStore
}

func NewInteractor(journal navout.SessionJournal, reports navout.ReportStore) navin.Usecase {
	return &Interactor{journal: journal, reports: reports}
}

func (i *Interactor) History(ctx context.Context, input dto.HistoryInput) ([]dto.SessionOutput, error) {
	sessions, err := i.recent(ctx, input)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionOutput, len(sessions))
	for idx, s := range sessions {
		out[idx] = toOutput(s)
	}
	return out, nil
}

func (i *Interactor) Report(ctx context.Context, input dto.HistoryInput) (dto.ReportOutput, error) {
	if i.reports == nil {
		return dto.ReportOutput{}, fmt.Errorf("report store is not configured")
	}
	sessions, err := i.recent(ctx, input)
	if err != nil {
		return dto.ReportOutput{}, err
	}

	counts := map[string]int{}
	var total int64
	for _, s := range sessions {
		counts[string(s.Outcome)]++
		total += s.Duration().Milliseconds()
	}
	avg := int64(0)
	if len(sessions) > 0 {
		avg = total / int64(len(sessions))
	}
	meta := map[string]any{
		"schema_version":      reportSchemaVersion,
		"sessions":            len(sessions),
		"completed":           counts[string(domain.OutcomeCompleted)],
		"stopped":             counts[string(domain.OutcomeStopped)],
		"failed":              counts[string(domain.OutcomeFailed)],
		"interrupted":         counts[string(domain.OutcomeInterrupted)],
		"average_duration_ms": avg,
	}

	var body strings.Builder
	body.WriteString("# Navigation report\n\n")
	if len(sessions) == 0 {
		body.WriteString("No navigation sessions recorded.\n")
	} else {
		rows := make([][]string, len(sessions))
		for idx, s := range sessions {
			rows[idx] = []string{
				s.StartedAt.Format("2006-01-02 15:04:05"),
				s.Target,
				s.From,
				string(s.Outcome),
				strconv.FormatInt(s.Duration().Milliseconds(), 10),
				s.Error,
			}
		}
		body.WriteString(markdown.Table(reportColumns, rows))
	}

	path, err := i.reports.Save(ctx, meta, body.String())
	if err != nil {
		return dto.ReportOutput{}, err
	}
	return dto.ReportOutput{Path: path, Sessions: len(sessions)}, nil
}

func (i *Interactor) recent(ctx context.Context, input dto.HistoryInput) ([]domain.Session, error) {
	if input.Limit < 0 || input.Limit > maxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", apperrors.ErrInvalidInput, maxHistoryLimit)
	}
	if i.journal == nil {
		return nil, fmt.Errorf("navigation journal is not configured")
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	return i.journal.Recent(ctx, limit)
}

func toOutput(s domain.Session) dto.SessionOutput {
	return dto.SessionOutput{
		ID:         s.ID,
		Target:     s.Target,
		From:       s.From,
		Location:   s.Location,
		Outcome:    string(s.Outcome),
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		DurationMs: s.Duration().Milliseconds(),
	}
}
