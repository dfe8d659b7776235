package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/property-booking/internal/config"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestDetect(t *testing.T) {
	ct, ext := Detect(pngBytes)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	ct, ext = Detect(jpegBytes)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, ".jpg", ext)

	ct, _ = Detect([]byte("%PDF-1.7\n"))
	assert.Equal(t, "application/pdf", ct)
}

func TestProofKey(t *testing.T) {
	k1 := ProofKey("payment-proofs", 42, ".png")
	k2 := ProofKey("payment-proofs", 42, ".png")
	assert.True(t, strings.HasPrefix(k1, "payment-proofs/booking-42/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.NotEqual(t, k1, k2)
}

func TestLocal_PutDelete(t *testing.T) {
	dir := t.TempDir()
	st, err := New(config.StorageConfig{Backend: "local", LocalDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := st.Put(ctx, "payment-proofs/booking-1/a.png", pngBytes, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "payment-proofs/booking-1/a.png", ref)

	got, err := os.ReadFile(filepath.Join(dir, "payment-proofs", "booking-1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	require.NoError(t, st.Delete(ctx, ref))
	require.NoError(t, st.Delete(ctx, ref), "deleting twice is fine")
	_, err = os.Stat(filepath.Join(dir, "payment-proofs", "booking-1", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	_, err = st.Put(context.Background(), "../../etc/passwd", []byte("x"), "text/plain")
	assert.Error(t, err)
}
