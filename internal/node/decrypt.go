package node

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// D-Link SHRS firmware is AES-128-CBC encrypted (no padding, no salt)
// starting 1756 bytes into the file, with a fixed key and IV (§4.4).
// These are the algorithm's own constants, not a library choice, so
// they are implemented with the standard library's crypto/aes +
// crypto/cipher rather than a third-party AES package — there is no
// "pick a library" decision here, only "run AES-CBC", which is exactly
// what crypto/cipher.NewCBCDecrypter exists for.
const (
	shrsSkipBytes = 1756
	shrsKeyHex    = "c05fbf1936c99429ce2a0781f08d6ad8"
	shrsIVHex     = "67c6697351ff4aec29cdbaabf2fbe346"
)

var shrsMagic = []byte("SHRS")

// checkEncryption implements cascade phase 2 (§4.4): on the SHRS magic,
// decrypt the remainder of the file into scratch/dlink_decrypt. It
// always reports "changed" once the magic matches, whether or not
// decryption succeeds in producing a directly-reusable output. The
// decrypted file is not processed further: nothing re-queues it, a
// containing archive's recursion walks only that archive's own extracted
// directory, and the file is removed with the node's scratch directory
// when the node is closed (a known sharp edge inherited from the reference
// design; see SPEC_FULL.md §9).
func checkEncryption(_ context.Context, n *Node) (bool, error) {
	f, err := os.Open(n.SourcePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil //nolint:nilerr // short file, simply not SHRS
	}
	if string(magic) != string(shrsMagic) {
		return false, nil
	}

	rlog.Infof(n.Depth, n.SourcePath, "found D-Link SHRS-encrypted firmware")

	if _, err := f.Seek(shrsSkipBytes, io.SeekStart); err != nil {
		return true, errors.Wrap(err, "seeking past SHRS header")
	}

	key, err := hex.DecodeString(shrsKeyHex)
	if err != nil {
		return true, errors.Wrap(err, "decoding SHRS key")
	}
	iv, err := hex.DecodeString(shrsIVHex)
	if err != nil {
		return true, errors.Wrap(err, "decoding SHRS IV")
	}

	ciphertext, err := io.ReadAll(f)
	if err != nil {
		return true, errors.Wrap(err, "reading SHRS payload")
	}
	// AES-CBC requires whole blocks; the reference's "-nopad" openssl
	// invocation silently drops any trailing partial block, so we do too.
	ciphertext = ciphertext[:len(ciphertext)-len(ciphertext)%aes.BlockSize]

	block, err := aes.NewCipher(key)
	if err != nil {
		return true, errors.Wrap(err, "constructing AES cipher")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	outPath := filepath.Join(n.Scratch, "dlink_decrypt")
	if err := os.WriteFile(outPath, plaintext, 0o644); err != nil {
		return true, errors.Wrap(err, "writing decrypted payload")
	}
	rlog.Debugf(n.Depth, n.SourcePath, "decrypted to %s", outPath)

	return true, nil
}
