// Package docstore stores applicant documents under generated
// collision-resistant references. User-supplied filenames are never part
// of a storage key; they travel as metadata on the Application record.
package docstore

import (
	"context"
	"io"
)

// Store is the document blob storage abstraction.
type Store interface {
	// Put writes the document completely and returns its generated ref.
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	// Open streams a stored document and reports its content type.
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
	// Remove deletes a stored document. Removing an unknown ref is an error.
	Remove(ctx context.Context, ref string) error
}
