package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/access"
	"jobboard/internal/apperr"
	"jobboard/internal/docstore"
	"jobboard/internal/identity"
	"jobboard/internal/posting"
)

// Application is a candidate's submission against one posting. Never
// mutated after creation; duplicates per (applicant, posting) are allowed.
type Application struct {
	ID            string    `json:"id"`
	PostingID     string    `json:"posting_id"`
	ApplicantID   string    `json:"applicant_id"`
	ApplicantName string    `json:"applicant_name"`
	DocumentRef   string    `json:"document_ref"`
	DocumentName  string    `json:"document_name"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Seq           int64     `json:"-"`
}

// Store persists applications in submission order.
type Store interface {
	Insert(ctx context.Context, a Application) (Application, error)
	ListByPosting(ctx context.Context, postingID string) ([]Application, error)
	GetByDocumentRef(ctx context.Context, ref string) (Application, error)
	DeleteByPosting(ctx context.Context, postingID string) ([]string, error)
}

// PostingSource resolves the posting an application targets.
type PostingSource interface {
	Get(ctx context.Context, id string) (posting.Posting, error)
}

// Service is the application intake: submissions, the owner's applicant
// list, and scoped document retrieval.
type Service struct {
	store    Store
	postings PostingSource
	docs     docstore.Store
}

// NewService creates an intake backed by a store, posting source and
// document store.
func NewService(store Store, postings PostingSource, docs docstore.Store) *Service {
	return &Service{store: store, postings: postings, docs: docs}
}

// Submit records an application. The document is written completely before
// the record becomes visible to ListApplicants.
func (s *Service) Submit(ctx context.Context, caller identity.Account, postingID, applicantName, documentName string, document []byte, contentType string) (Application, error) {
	if err := access.Allow(caller, access.ActionSubmitApplication, ""); err != nil {
		return Application{}, err
	}
	if _, err := s.postings.Get(ctx, postingID); err != nil {
		return Application{}, err
	}
	if strings.TrimSpace(applicantName) == "" || len(document) == 0 {
		return Application{}, fmt.Errorf("%w: applicant name and document required", apperr.ErrValidation)
	}

	ref, err := s.docs.Put(ctx, document, contentType)
	if err != nil {
		return Application{}, err
	}

	a := Application{
		ID:            uuid.NewString(),
		PostingID:     postingID,
		ApplicantID:   caller.ID,
		ApplicantName: strings.TrimSpace(applicantName),
		DocumentRef:   ref,
		DocumentName:  documentName,
		SubmittedAt:   time.Now().UTC(),
	}
	stored, err := s.store.Insert(ctx, a)
	if err != nil {
		_ = s.docs.Remove(ctx, ref)
		return Application{}, err
	}
	return stored, nil
}

// ListApplicants returns a posting's applications in submission order.
// Posting owner only.
func (s *Service) ListApplicants(ctx context.Context, caller identity.Account, postingID string) ([]Application, error) {
	p, err := s.postings.Get(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if err := access.Allow(caller, access.ActionListApplicants, p.OwnerID); err != nil {
		return nil, err
	}
	return s.store.ListByPosting(ctx, postingID)
}

// FetchDocument streams a submitted document. Scoped to the posting owner
// and the submitting applicant; holding the ref is not enough.
func (s *Service) FetchDocument(ctx context.Context, caller identity.Account, ref string) (io.ReadCloser, Application, string, error) {
	a, err := s.store.GetByDocumentRef(ctx, ref)
	if err != nil {
		return nil, Application{}, "", err
	}
	if caller.ID != a.ApplicantID {
		p, err := s.postings.Get(ctx, a.PostingID)
		if err != nil {
			return nil, Application{}, "", err
		}
		if caller.ID != p.OwnerID {
			return nil, Application{}, "", fmt.Errorf("%w: document is scoped to the applicant and posting owner", apperr.ErrForbidden)
		}
	}
	rc, contentType, err := s.docs.Open(ctx, ref)
	if err != nil {
		return nil, Application{}, "", err
	}
	return rc, a, contentType, nil
}

// PurgeByPosting removes a posting's applications and their stored
// documents. Called by the registry when a posting is deleted.
func (s *Service) PurgeByPosting(ctx context.Context, postingID string) error {
	refs, err := s.store.DeleteByPosting(ctx, postingID)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		// Best effort: the records are already gone.
		_ = s.docs.Remove(ctx, ref)
	}
	return nil
}
