package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/apperr"
	"jobboard/internal/crypto"
)

// Role classifies an account. Employer covers faculty posting TA/RA openings.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployer Role = "employer"
)

// ValidRole reports whether the role is one the engine recognizes.
func ValidRole(r Role) bool {
	return r == RoleStudent || r == RoleEmployer
}

// Account is a registered identity. Immutable after registration.
type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CredentialHash string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists accounts. Insert must reject a duplicate name atomically
// (conditional insert, not check-then-act).
type Store interface {
	Insert(ctx context.Context, acct Account) error
	GetByName(ctx context.Context, name string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
}

// Service implements registration, authentication and caller resolution.
type Service struct {
	store Store
}

// NewService creates an identity service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a new account. Names are unique case-insensitively.
func (s *Service) Register(ctx context.Context, name, credential string, role Role) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" || credential == "" {
		return Account{}, fmt.Errorf("%w: name and credential required", apperr.ErrValidation)
	}
	if !ValidRole(role) {
		return Account{}, fmt.Errorf("%w: %q", apperr.ErrInvalidRole, role)
	}

	hash, err := crypto.HashPassword(credential)
	if err != nil {
		return Account{}, fmt.Errorf("hash credential: %w", err)
	}

	acct := Account{
		ID:             uuid.NewString(),
		Name:           name,
		CredentialHash: hash,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, acct); err != nil {
		return Account{}, err
	}
	acct.CredentialHash = ""
	return acct, nil
}

// Authenticate returns the account on an exact credential match. Unknown
// names and wrong credentials are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, name, credential string) (Account, error) {
	if name == "" || credential == "" {
		return Account{}, fmt.Errorf("%w: name and credential required", apperr.ErrValidation)
	}
	acct, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Account{}, apperr.ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err := crypto.CheckPassword(acct.CredentialHash, credential); err != nil {
		return Account{}, apperr.ErrInvalidCredentials
	}
	acct.CredentialHash = ""
	return acct, nil
}

// Resolve maps an authenticated subject id back to its account.
func (s *Service) Resolve(ctx context.Context, accountID string) (Account, error) {
	if accountID == "" {
		return Account{}, apperr.ErrUnauthenticated
	}
	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Account{}, apperr.ErrUnauthenticated
		}
		return Account{}, err
	}
	acct.CredentialHash = ""
	return acct, nil
}
