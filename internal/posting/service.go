package posting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/access"
	"jobboard/internal/apperr"
	"jobboard/internal/identity"
)

// Status is the posting lifecycle state. The toggle is symmetric: CLOSED
// postings can reopen.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Posting is a job or TA/RA opening. Owner is assigned at creation and
// never transferred.
type Posting struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Organization string    `json:"organization"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Seq          int64     `json:"-"`

	RequiredCourses []string          `json:"required_courses,omitempty"`
	Skills          []string          `json:"skills,omitempty"`
	Standings       []string          `json:"standings,omitempty"`
	Paid            bool              `json:"paid"`
	Stipend         *float64          `json:"stipend,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Attributes is the caller-supplied shape for create. Unrecognized optional
// fields arrive in Extra and are stored opaquely.
type Attributes struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Organization    string            `json:"organization"`
	RequiredCourses []string          `json:"required_courses"`
	Skills          []string          `json:"skills"`
	Standings       []string          `json:"standings"`
	Paid            bool              `json:"paid"`
	Stipend         *float64          `json:"stipend"`
	Extra           map[string]string `json:"extra"`
}

// Store persists postings. Insert assigns the insertion sequence; Toggle
// flips status atomically within the record.
type Store interface {
	Insert(ctx context.Context, p Posting) (Posting, error)
	Get(ctx context.Context, id string) (Posting, error)
	Toggle(ctx context.Context, id string) (Posting, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Posting, error)
}

// ApplicationPurger removes all applications for a deleted posting.
type ApplicationPurger interface {
	PurgeByPosting(ctx context.Context, postingID string) error
}

// Service is the posting registry: it owns the lifecycle state machine and
// consults the access guard before every mutation.
type Service struct {
	store Store
	apps  ApplicationPurger
}

// NewService creates a registry backed by a store. apps may be nil when no
// application intake is wired (cascade becomes a no-op).
func NewService(store Store, apps ApplicationPurger) *Service {
	return &Service{store: store, apps: apps}
}

// Create publishes a new OPEN posting owned by the caller.
func (s *Service) Create(ctx context.Context, caller identity.Account, attrs Attributes) (Posting, error) {
	if err := access.Allow(caller, access.ActionCreatePosting, ""); err != nil {
		return Posting{}, err
	}
	if strings.TrimSpace(attrs.Title) == "" ||
		strings.TrimSpace(attrs.Description) == "" ||
		strings.TrimSpace(attrs.Organization) == "" {
		return Posting{}, fmt.Errorf("%w: title, description and organization required", apperr.ErrValidation)
	}

	p := Posting{
		ID:              uuid.NewString(),
		OwnerID:         caller.ID,
		OwnerName:       caller.Name,
		Title:           strings.TrimSpace(attrs.Title),
		Description:     attrs.Description,
		Organization:    strings.TrimSpace(attrs.Organization),
		Status:          StatusOpen,
		CreatedAt:       time.Now().UTC(),
		RequiredCourses: attrs.RequiredCourses,
		Skills:          attrs.Skills,
		Standings:       attrs.Standings,
		Paid:            attrs.Paid,
		Stipend:         attrs.Stipend,
		Extra:           attrs.Extra,
	}
	return s.store.Insert(ctx, p)
}

// ToggleStatus flips a posting between OPEN and CLOSED. Owner only.
func (s *Service) ToggleStatus(ctx context.Context, caller identity.Account, id string) (Posting, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Posting{}, err
	}
	if err := access.Allow(caller, access.ActionTogglePosting, p.OwnerID); err != nil {
		return Posting{}, err
	}
	return s.store.Toggle(ctx, id)
}

// Delete removes a posting and cascades removal of its applications.
func (s *Service) Delete(ctx context.Context, caller identity.Account, id string) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Allow(caller, access.ActionDeletePosting, p.OwnerID); err != nil {
		return err
	}
	if s.apps != nil {
		if err := s.apps.PurgeByPosting(ctx, id); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, id)
}

// Get returns a posting by id. Unrestricted read.
func (s *Service) Get(ctx context.Context, id string) (Posting, error) {
	return s.store.Get(ctx, id)
}
