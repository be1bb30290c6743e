package oracle

import (
	"encoding/binary"
	"fmt"
	"os"
)

// uImage header magic, big-endian, per U-Boot's image.h.
const uImageMagic = 0x27051956

// uImage header is a fixed 64-byte structure; ih_size sits at offset 12,
// ih_type (2 == kernel image) at offset 30.
const (
	uImageHeaderSize = 64
	uImageSizeOffset = 12
	uImageTypeOffset = 30
	uImageTypeKernel = 2
)

// TRX magic "HDR0", little-endian header used by TP-Link/Netgear/Asus
// dual-image firmware.
var trxMagic = [4]byte{'H', 'D', 'R', '0'}

const (
	trxHeaderLen       = 28
	trxKernelOffsetOff = 16
	trxRootfsOffsetOff = 20
)

// scanHeader implements the oracle's "header" category: it recognizes
// U-Boot uImage and TP-Link/TRX descriptors and produces Findings whose
// Description follows the conventions §4.1 documents, so Describe (and
// any caller supplying synthetic findings in tests) sees the same shape.
func scanHeader(path string) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	buf := make([]byte, trxHeaderLen)
	if size < int64(len(buf)) {
		buf = make([]byte, size)
	}
	if _, err := f.ReadAt(buf, 0); err != nil && size > 0 {
		return nil, err
	}

	var findings []Finding

	if len(buf) >= 4 && binary.BigEndian.Uint32(buf[:4]) == uImageMagic {
		header := make([]byte, uImageHeaderSize)
		n, _ := f.ReadAt(header, 0)
		if n >= uImageTypeOffset+1 {
			imgSize := binary.BigEndian.Uint32(header[uImageSizeOffset : uImageSizeOffset+4])
			imgType := header[uImageTypeOffset]
			desc := fmt.Sprintf(
				"uImage header, header size: 64 bytes, image size: %d bytes",
				imgSize,
			)
			if imgType == uImageTypeKernel {
				desc += ", OS Kernel Image"
			}
			findings = append(findings, Finding{Description: desc, Offset: 0})
		}
	}

	if len(buf) >= trxHeaderLen && buf[0] == trxMagic[0] && buf[1] == trxMagic[1] && buf[2] == trxMagic[2] && buf[3] == trxMagic[3] {
		kernelOff := binary.LittleEndian.Uint32(buf[trxKernelOffsetOff : trxKernelOffsetOff+4])
		rootfsOff := binary.LittleEndian.Uint32(buf[trxRootfsOffsetOff : trxRootfsOffsetOff+4])
		desc := fmt.Sprintf(
			"TRX firmware header, little-endian, kernel offset: 0x%x, rootfs offset: 0x%x",
			kernelOff, rootfsOff,
		)
		findings = append(findings, Finding{Description: desc, Offset: 0})
	}

	if len(findings) == 0 {
		return nil, nil
	}
	return []Module{{Results: findings}}, nil
}
