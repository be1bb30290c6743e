package oracle

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME sniffs path's content and returns both the canonical MIME
// type (e.g. "application/gzip") and a free-form type description,
// mirroring the two independent checks extractor.py performs with
// libmagic (one for MIME type, one for its human-readable type string).
// Grounded on backend/compress/compress.go's mimetype.Detect(buf) call.
func DetectMIME(path string) (mimeType string, freeForm string, err error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", err
	}
	return mt.String(), strings.ToLower(mt.String() + " " + describeExtension(mt.Extension())), nil
}

// describeExtension gives the blacklist's free-form-type check something
// to search for common binary container formats mimetype already
// recognizes (it does not expose libmagic's verbose type strings
// directly, so this approximates the same signal from the extension and
// MIME subtree).
func describeExtension(ext string) string {
	switch ext {
	case ".exe", ".dll":
		return "executable relocatable"
	case ".class":
		return "bytecode"
	case ".app":
		return "applet"
	default:
		return ""
	}
}
