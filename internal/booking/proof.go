package booking

import "strings"

// MaxProofBytes caps the size of a payment proof upload.
const MaxProofBytes = 1 << 20

var proofTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ValidateProof accepts JPEG and PNG images up to MaxProofBytes.
func ValidateProof(contentType string, size int64) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !proofTypes[ct] {
		return validationf("payment proof must be a JPG or PNG image")
	}
	if size <= 0 {
		return validationf("payment proof is empty")
	}
	if size > MaxProofBytes {
		return validationf("payment proof must not exceed 1MB")
	}
	return nil
}
