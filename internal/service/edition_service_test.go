package service

import (
	"context"
	"errors"
	"testing"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

func int64p(v int64) *int64 { return &v }

func TestActivateEditionIsExclusive(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := NewEditionService(db, zerolog.Nop())

	a, err := svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2025, Title: "OAIB 2025", Activate: true})
	if err != nil {
		t.Fatalf("CreateEdition() error = %v", err)
	}
	b, err := svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2026, Title: "OAIB 2026", Activate: true})
	if err != nil {
		t.Fatalf("CreateEdition() error = %v", err)
	}

	active, err := svc.GetActiveEdition(ctx)
	if err != nil || active.ID != b.ID {
		t.Fatalf("active = %+v, %v; want edition %d", active, err, b.ID)
	}

	if _, err := svc.ActivateEdition(ctx, a.ID); err != nil {
		t.Fatalf("ActivateEdition() error = %v", err)
	}
	editions, _ := svc.ListEditions(ctx)
	count := 0
	for _, e := range editions {
		if e.IsActive {
			count++
			if e.ID != a.ID {
				t.Errorf("edition %d active, want %d", e.ID, a.ID)
			}
		}
	}
	if count != 1 {
		t.Errorf("%d active editions, want 1", count)
	}

	if _, err := svc.ActivateEdition(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("activate unknown error = %v, want ErrNotFound", err)
	}
}

func TestCreateEditionDuplicateYear(t *testing.T) {
	ctx := context.Background()
	svc := NewEditionService(newMemDB(), zerolog.Nop())
	_, _ = svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2026, Title: "OAIB 2026"})
	if _, err := svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2026, Title: "Bis"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestCreatePhaseEditionResolution(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		seed      bool
		editionID *int64
		useActive bool
		wantErr   error
	}{
		{"explicit edition", true, int64p(1), false, nil},
		{"active edition", true, nil, true, nil},
		{"both given", true, int64p(1), true, ErrValidation},
		{"neither given", true, nil, false, ErrValidation},
		{"unknown edition", true, int64p(42), false, ErrNotFound},
		{"no active edition", false, nil, true, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			svc := NewEditionService(db, zerolog.Nop())
			if tt.seed {
				if _, err := svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2026, Title: "OAIB 2026", Activate: true}); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			p, err := svc.CreatePhase(ctx, model.CreatePhaseRequest{
				EditionID:        tt.editionID,
				UseActiveEdition: tt.useActive,
				PhaseNumber:      1,
				Title:            "Qualifications",
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if len(db.editions) > 1 || (!tt.seed && len(db.editions) != 0) {
					t.Errorf("an edition was created implicitly")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreatePhase() error = %v", err)
			}
			if p.EditionID != 1 || p.Status != model.PhaseStatusUpcoming || p.EditionTitle != "OAIB 2026" {
				t.Errorf("phase = %+v", p)
			}
		})
	}
}

func TestCreatePhaseDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc := NewEditionService(newMemDB(), zerolog.Nop())
	e, _ := svc.CreateEdition(ctx, model.CreateEditionRequest{Year: 2026, Title: "OAIB 2026"})

	req := model.CreatePhaseRequest{EditionID: &e.ID, PhaseNumber: 1, Title: "Qualifications"}
	if _, err := svc.CreatePhase(ctx, req); err != nil {
		t.Fatalf("CreatePhase() error = %v", err)
	}
	if _, err := svc.CreatePhase(ctx, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}
