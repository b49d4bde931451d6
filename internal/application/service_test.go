package application

import (
	"context"
	"errors"
	"io"
	"testing"

	"jobboard/internal/apperr"
	"jobboard/internal/docstore"
	"jobboard/internal/identity"
	"jobboard/internal/posting"
)

var (
	employer = identity.Account{ID: "emp-1", Name: "Prof. Lin", Role: identity.RoleEmployer}
	rival    = identity.Account{ID: "emp-2", Name: "Prof. Ray", Role: identity.RoleEmployer}
	student  = identity.Account{ID: "stu-1", Name: "Alice", Role: identity.RoleStudent}
	student2 = identity.Account{ID: "stu-2", Name: "Bob", Role: identity.RoleStudent}
)

func newFixture(t *testing.T) (*Service, *posting.Service) {
	t.Helper()
	docs, err := docstore.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("docstore error: %v", err)
	}
	postingStore := posting.NewMemoryStore()
	svc := NewService(NewMemoryStore(), postingStore, docs)
	registry := posting.NewService(postingStore, svc)
	return svc, registry
}

func mustPosting(t *testing.T, registry *posting.Service) posting.Posting {
	t.Helper()
	p, err := registry.Create(context.Background(), employer, posting.Attributes{
		Title:        "CS3341 TA",
		Description:  "Grade homework",
		Organization: "CS3341",
	})
	if err != nil {
		t.Fatalf("create posting error: %v", err)
	}
	return p
}

func TestSubmit(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	a, err := svc.Submit(ctx, student, p.ID, "Alice", "resume.pdf", []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if a.DocumentRef == "" || a.DocumentRef == "resume.pdf" {
		t.Fatalf("document ref must be generated, got %q", a.DocumentRef)
	}
	if a.DocumentName != "resume.pdf" {
		t.Fatalf("original filename should survive as metadata, got %q", a.DocumentName)
	}
	if a.ApplicantID != student.ID {
		t.Fatalf("applicant should be the caller")
	}
}

func TestSubmitErrors(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	if _, err := svc.Submit(ctx, employer, p.ID, "Prof. Lin", "cv.pdf", []byte("x"), ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for employer, got %v", err)
	}
	if _, err := svc.Submit(ctx, student, "missing", "Alice", "cv.pdf", []byte("x"), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown posting, got %v", err)
	}
	if _, err := svc.Submit(ctx, student, p.ID, " ", "cv.pdf", []byte("x"), ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := svc.Submit(ctx, student, p.ID, "Alice", "cv.pdf", nil, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for missing document, got %v", err)
	}
}

func TestSubmitDuplicatesAllowed(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(ctx, student, p.ID, "Alice", "resume.pdf", []byte("x"), ""); err != nil {
			t.Fatalf("submit %d error: %v", i, err)
		}
	}
	apps, err := svc.ListApplicants(ctx, employer, p.ID)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("duplicate submissions are permitted, expected 2, got %d", len(apps))
	}
}

func TestListApplicantsOrderAndOwnership(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	names := []string{"Alice", "Bob", "Carol"}
	for _, name := range names {
		if _, err := svc.Submit(ctx, student, p.ID, name, "r.pdf", []byte("x"), ""); err != nil {
			t.Fatalf("submit error: %v", err)
		}
	}

	apps, err := svc.ListApplicants(ctx, employer, p.ID)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	for i, name := range names {
		if apps[i].ApplicantName != name {
			t.Fatalf("expected submission order %v, got %s at %d", names, apps[i].ApplicantName, i)
		}
	}

	if _, err := svc.ListApplicants(ctx, rival, p.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner employer, got %v", err)
	}
	if _, err := svc.ListApplicants(ctx, student, p.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for student, got %v", err)
	}
	if _, err := svc.ListApplicants(ctx, employer, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchDocumentScoping(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	a, err := svc.Submit(ctx, student, p.ID, "Alice", "resume.pdf", []byte("resume body"), "application/pdf")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}

	// Posting owner and submitting applicant may fetch.
	for _, caller := range []identity.Account{employer, student} {
		rc, got, contentType, err := svc.FetchDocument(ctx, caller, a.DocumentRef)
		if err != nil {
			t.Fatalf("fetch as %s error: %v", caller.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if string(body) != "resume body" || got.ID != a.ID || contentType != "application/pdf" {
			t.Fatalf("unexpected fetch result for %s", caller.Name)
		}
	}

	// Everyone else is refused even with a valid ref.
	for _, caller := range []identity.Account{rival, student2} {
		if _, _, _, err := svc.FetchDocument(ctx, caller, a.DocumentRef); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("expected forbidden for %s, got %v", caller.Name, err)
		}
	}

	if _, _, _, err := svc.FetchDocument(ctx, employer, "unknown-ref"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown ref, got %v", err)
	}
}

func TestDeleteCascadesApplications(t *testing.T) {
	svc, registry := newFixture(t)
	ctx := context.Background()
	p := mustPosting(t, registry)

	a, err := svc.Submit(ctx, student, p.ID, "Alice", "resume.pdf", []byte("x"), "")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if err := registry.Delete(ctx, employer, p.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := svc.store.GetByDocumentRef(ctx, a.DocumentRef); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected applications purged with their posting, got %v", err)
	}
	if _, _, _, err := svc.FetchDocument(ctx, student, a.DocumentRef); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected document removed with its posting, got %v", err)
	}
}

func TestEndToEndScenario(t *testing.T) {
	docs, err := docstore.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("docstore error: %v", err)
	}
	ctx := context.Background()

	idents := identity.NewService(identity.NewMemoryStore())
	e, err := idents.Register(ctx, "Prof. Lin", "pw", identity.RoleEmployer)
	if err != nil {
		t.Fatalf("register employer error: %v", err)
	}
	f, err := idents.Register(ctx, "Prof. Ray", "pw", identity.RoleEmployer)
	if err != nil {
		t.Fatalf("register employer error: %v", err)
	}
	s, err := idents.Register(ctx, "alice", "pw", identity.RoleStudent)
	if err != nil {
		t.Fatalf("register student error: %v", err)
	}

	postingStore := posting.NewMemoryStore()
	intake := NewService(NewMemoryStore(), postingStore, docs)
	registry := posting.NewService(postingStore, intake)

	p, err := registry.Create(ctx, e, posting.Attributes{
		Title:        "CS3341 TA",
		Description:  "TA opening",
		Organization: "CS3341",
	})
	if err != nil {
		t.Fatalf("create posting error: %v", err)
	}
	if p.Status != posting.StatusOpen {
		t.Fatalf("posting should start OPEN")
	}

	if _, err := intake.Submit(ctx, s, p.ID, "Alice", "resume.pdf", []byte("x"), ""); err != nil {
		t.Fatalf("submit error: %v", err)
	}

	apps, err := intake.ListApplicants(ctx, e, p.ID)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(apps) != 1 || apps[0].ApplicantName != "Alice" {
		t.Fatalf("expected exactly one applicant named Alice, got %+v", apps)
	}

	if _, err := intake.ListApplicants(ctx, f, p.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for the other employer, got %v", err)
	}
}
