package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

// EditionStore is the persistence of editions and phases.
type EditionStore interface {
	ListEditions(ctx context.Context) ([]model.Edition, error)
	GetEdition(ctx context.Context, id int64) (*model.Edition, error)
	GetActiveEdition(ctx context.Context) (*model.Edition, error)
	CreateEdition(ctx context.Context, e *model.Edition, activate bool) error
	ActivateEdition(ctx context.Context, id int64) error
	ListPhases(ctx context.Context, f model.PhaseFilter) ([]model.Phase, error)
	CreatePhase(ctx context.Context, p *model.Phase) error
}

// EditionService handles editions and phases.
type EditionService struct {
	store EditionStore
	log   zerolog.Logger
}

// NewEditionService creates a new EditionService.
func NewEditionService(store EditionStore, log zerolog.Logger) *EditionService {
	return &EditionService{
		store: store,
		log:   log.With().Str("component", "edition_service").Logger(),
	}
}

// ListEditions returns every edition, newest first.
func (s *EditionService) ListEditions(ctx context.Context) ([]model.Edition, error) {
	editions, err := s.store.ListEditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	if editions == nil {
		editions = []model.Edition{}
	}
	return editions, nil
}

// GetActiveEdition returns the active edition, or ErrNotFound when none is active.
func (s *EditionService) GetActiveEdition(ctx context.Context) (*model.Edition, error) {
	e, err := s.store.GetActiveEdition(ctx)
	if err != nil {
		return nil, storeErr("get active edition", err)
	}
	return e, nil
}

// CreateEdition creates an edition, optionally making it the active one.
func (s *EditionService) CreateEdition(ctx context.Context, req model.CreateEditionRequest) (*model.Edition, error) {
	e := &model.Edition{
		Year:        req.Year,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if e.Title == "" {
		return nil, invalid("title", "must not be empty")
	}
	if err := s.store.CreateEdition(ctx, e, req.Activate); err != nil {
		return nil, storeErr("create edition", err)
	}
	s.log.Info().Int64("edition_id", e.ID).Int("year", e.Year).Bool("active", e.IsActive).Msg("Edition created")
	return e, nil
}

// ActivateEdition makes id the only active edition.
func (s *EditionService) ActivateEdition(ctx context.Context, id int64) (*model.Edition, error) {
	if err := s.store.ActivateEdition(ctx, id); err != nil {
		return nil, storeErr("activate edition", err)
	}
	e, err := s.store.GetEdition(ctx, id)
	if err != nil {
		return nil, storeErr("get edition", err)
	}
	s.log.Info().Int64("edition_id", id).Msg("Edition activated")
	return e, nil
}

// ListPhases lists phases matching f.
func (s *EditionService) ListPhases(ctx context.Context, f model.PhaseFilter) ([]model.Phase, error) {
	phases, err := s.store.ListPhases(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	if phases == nil {
		phases = []model.Phase{}
	}
	return phases, nil
}

// resolveEdition picks the edition a phase is created under. The caller must
// either name it or ask for the active one; nothing is inferred or created.
func (s *EditionService) resolveEdition(ctx context.Context, editionID *int64, useActive bool) (*model.Edition, error) {
	switch {
	case editionID != nil && useActive:
		return nil, invalid("edition_id", "give either edition_id or use_active_edition, not both")
	case editionID != nil:
		e, err := s.store.GetEdition(ctx, *editionID)
		if err != nil {
			return nil, storeErr("get edition", err)
		}
		return e, nil
	case useActive:
		e, err := s.store.GetActiveEdition(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no active edition: %w", ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("get active edition: %w", err)
		}
		return e, nil
	}
	return nil, invalid("edition_id", "required unless use_active_edition is set")
}

// CreatePhase creates a phase under an explicitly resolved edition.
func (s *EditionService) CreatePhase(ctx context.Context, req model.CreatePhaseRequest) (*model.Phase, error) {
	edition, err := s.resolveEdition(ctx, req.EditionID, req.UseActiveEdition)
	if err != nil {
		return nil, err
	}

	p := &model.Phase{
		EditionID:    edition.ID,
		EditionTitle: edition.Title,
		PhaseNumber:  req.PhaseNumber,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       req.Status,
	}
	if p.Status == "" {
		p.Status = model.PhaseStatusUpcoming
	}
	if p.PhaseNumber < 1 {
		return nil, invalid("phase_number", "must be positive")
	}
	if p.StartDate != nil && p.EndDate != nil && !p.EndDate.After(*p.StartDate) {
		return nil, invalid("end_date", "must be after start_date")
	}

	if err := s.store.CreatePhase(ctx, p); err != nil {
		return nil, storeErr("create phase", err)
	}
	return p, nil
}
