package docstore

import (
	"context"
	"io"

	"github.com/google/uuid"

	"jobboard/internal/apperr"
	"jobboard/internal/cloudinary"
)

// Cloudinary stores documents as raw uploads. The ref is a server-generated
// uuid; the configured folder is a storage detail and never part of the ref.
type Cloudinary struct {
	client *cloudinary.Client
}

// NewCloudinary wraps an upload client.
func NewCloudinary(client *cloudinary.Client) *Cloudinary {
	return &Cloudinary{client: client}
}

// Put uploads the document under a fresh uuid public id.
func (c *Cloudinary) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := uuid.NewString()
	if _, err := c.client.UploadRaw(data, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// Open streams a stored document from the CDN.
func (c *Cloudinary) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, "", apperr.ErrNotFound
	}
	return c.client.Download(c.client.QualifiedID(ref))
}

// Remove deletes the raw upload.
func (c *Cloudinary) Remove(ctx context.Context, ref string) error {
	if _, err := uuid.Parse(ref); err != nil {
		return apperr.ErrNotFound
	}
	return c.client.Destroy(c.client.QualifiedID(ref))
}
