// Package storage keeps uploaded payment proofs, either in an S3 bucket or
// on local disk.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/iliyamo/property-booking/internal/config"
)

// Store persists opaque objects under a key and returns a reference that
// is saved on the booking.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// New returns the backend selected by cfg.
func New(cfg config.StorageConfig) (Store, error) {
	if cfg.Backend == "s3" {
		return NewS3(cfg)
	}
	return NewLocal(cfg.LocalDir)
}

// Detect sniffs the content type and canonical extension of body.  The
// client supplied Content-Type header is never trusted.
func Detect(body []byte) (contentType, ext string) {
	m := mimetype.Detect(body)
	ct := m.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, m.Extension()
}

// ProofKey builds a unique object key for a booking's payment proof.
func ProofKey(prefix string, bookingID uint64, ext string) string {
	name := uuid.NewString() + ext
	return path.Join(prefix, fmt.Sprintf("booking-%d", bookingID), name)
}
