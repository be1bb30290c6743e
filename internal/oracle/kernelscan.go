package oracle

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// scanWindow bounds how much of a candidate file is searched for a
// "Linux version" banner or a foreign-OS boot signature; real kernel
// images carry this near the front of the (possibly compressed) payload.
const scanWindow = 4 * 1024 * 1024

var linuxBanner = []byte("Linux version ")

// vxWorksSymtab is the literal string "VxWorks"; any occurrence of it in
// the scan window counts as a foreign-OS marker. It exists to exercise the
// spec's "reject non-Linux kernel" path; no VxWorks header structure is
// parsed.
var vxWorksSymtab = []byte("VxWorks")

// scanKernel implements the oracle's "kernel" category (§4.1): it looks
// for a Linux version banner, and otherwise for a recognizable foreign-OS
// marker, each yielding a "kernel version" Finding.
func scanKernel(path string) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, scanWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	buf = buf[:n]

	if idx := bytes.Index(buf, linuxBanner); idx >= 0 {
		version := extractLine(buf[idx:])
		return []Module{{Results: []Finding{{
			Description: fmt.Sprintf("Linux kernel, kernel version %q", version),
			Offset:      uint64(idx),
		}}}}, nil
	}

	if idx := bytes.Index(buf, vxWorksSymtab); idx >= 0 {
		return []Module{{Results: []Finding{{
			Description: "VxWorks symbol table, kernel version unknown",
			Offset:      uint64(idx),
		}}}}, nil
	}

	return nil, nil
}

// extractLine returns the printable prefix of buf up to the first
// control character or a reasonable length cap, used to echo the banner
// text into the Finding description the way binwalk does.
func extractLine(buf []byte) string {
	const maxLen = 120
	end := len(buf)
	for i, b := range buf {
		if i >= maxLen || b < 0x20 || b > 0x7e {
			end = i
			break
		}
	}
	return string(buf[:end])
}
