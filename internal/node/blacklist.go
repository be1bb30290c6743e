package node

import (
	"strings"

	"github.com/firmadyne-tools/fwextract/internal/oracle"
)

var blacklistedMIMEPrefixes = []string{
	"application/x-executable",
	"application/x-dosexec",
	"application/x-object",
	"application/pdf",
	"application/msword",
	"image/",
	"text/",
	"video/",
}

var blacklistedTypeSubstrings = []string{
	"executable",
	"universal binary",
	"relocatable",
	"bytecode",
	"applet",
}

// isBlacklisted implements the node processor's preflight blacklist
// (§4.2 step 4): it derives a MIME type and a free-form type string and
// skips on either, or on a ".dmg" suffix.
func isBlacklisted(path string) bool {
	if strings.HasSuffix(path, ".dmg") {
		return true
	}

	mimeType, freeForm, err := oracle.DetectMIME(path)
	if err != nil {
		// Classification failure is not itself blacklisting; let the
		// cascade attempt the file.
		return false
	}

	for _, prefix := range blacklistedMIMEPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	for _, substr := range blacklistedTypeSubstrings {
		if strings.Contains(freeForm, substr) {
			return true
		}
	}
	return false
}
