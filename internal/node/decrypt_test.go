package node

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmadyne-tools/fwextract/internal/job"
)

func TestCheckEncryptionDecryptsSHRS(t *testing.T) {
	key, err := hex.DecodeString(shrsKeyHex)
	require.NoError(t, err)
	iv, err := hex.DecodeString(shrsIVHex)
	require.NoError(t, err)

	plaintext := []byte("0123456789abcdef0123456789abcdef") // two AES blocks
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	path := filepath.Join(t.TempDir(), "firmware.bin")
	payload := append([]byte("SHRS"), make([]byte, shrsSkipBytes-4)...)
	payload = append(payload, ciphertext...)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	j := job.New(path, "", false, false, nil)
	n, err := New(j, path, 0)
	require.NoError(t, err)
	require.NoError(t, n.EnsureScratch())
	defer n.Close()

	changed, err := checkEncryption(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := os.ReadFile(filepath.Join(n.Scratch, "dlink_decrypt"))
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestCheckEncryptionIgnoresOtherMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte("not encrypted at all"), 0o644))

	j := job.New(path, "", false, false, nil)
	n, err := New(j, path, 0)
	require.NoError(t, err)
	require.NoError(t, n.EnsureScratch())
	defer n.Close()

	changed, err := checkEncryption(context.Background(), n)
	require.NoError(t, err)
	assert.False(t, changed)
}
