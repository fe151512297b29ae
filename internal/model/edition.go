package model

import "time"

// Edition is one yearly run of the competition. At most one edition is active.
type Edition struct {
	ID          int64     `json:"id"`
	Year        int       `json:"year"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	PhasesCount int       `json:"phases_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PhaseStatus enumerates the states of a competition phase.
type PhaseStatus string

const (
	PhaseStatusUpcoming  PhaseStatus = "upcoming"
	PhaseStatusActive    PhaseStatus = "active"
	PhaseStatusCompleted PhaseStatus = "completed"
)

// Phase is a time-boxed stage of an edition that exams belong to.
type Phase struct {
	ID           int64       `json:"id"`
	EditionID    int64       `json:"edition_id"`
	EditionTitle string      `json:"edition_title"`
	PhaseNumber  int         `json:"phase_number"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
	Status       PhaseStatus `json:"status"`
}

// CreateEditionRequest is the payload for creating an edition.
type CreateEditionRequest struct {
	Year        int    `json:"year" binding:"required,min=2000,max=2100"`
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Activate    bool   `json:"activate"`
}

// CreatePhaseRequest is the payload for creating a phase.
// Either EditionID is given or UseActiveEdition is set; nothing is inferred.
type CreatePhaseRequest struct {
	EditionID        *int64      `json:"edition_id" binding:"omitempty,min=1"`
	UseActiveEdition bool        `json:"use_active_edition"`
	PhaseNumber      int         `json:"phase_number" binding:"required,min=1"`
	Title            string      `json:"title" binding:"required,min=3,max=200"`
	Description      string      `json:"description" binding:"omitempty,max=2000"`
	StartDate        *time.Time  `json:"start_date"`
	EndDate          *time.Time  `json:"end_date" binding:"omitempty,gtfield=StartDate"`
	Status           PhaseStatus `json:"status" binding:"omitempty,oneof=upcoming active completed"`
}

// PhaseFilter narrows phase listings.
type PhaseFilter struct {
	EditionID *int64
	Status    *PhaseStatus
}
