package oracle

import (
	"strconv"
	"strings"
)

// Record is the typed interpretation of a Finding.Description, per the
// "Description parsing" design note: the cascade consumes only these
// typed records, never raw strings.
type Record interface{ isRecord() }

// UImageKernel is a U-Boot uImage kernel descriptor.
type UImageKernel struct {
	Size uint64
}

// TrxDual is a TP-Link/TRX dual kernel+rootfs descriptor.
type TrxDual struct {
	KernelOffset, KernelLen uint64
	RootfsOffset, RootfsLen uint64
	HasKernelLen            bool
	HasRootfsLen            bool
}

// KernelVersion is a "kernel version" finding, Linux or otherwise.
type KernelVersion struct {
	OS      string
	IsLinux bool
}

// OriginalName is an "original file name" hint.
type OriginalName struct {
	Name string
}

// Other is any finding that does not match a known convention.
type Other struct{}

func (UImageKernel) isRecord()  {}
func (TrxDual) isRecord()       {}
func (KernelVersion) isRecord() {}
func (OriginalName) isRecord()  {}
func (Other) isRecord()         {}

// Describe maps a Finding's free-text description to a typed Record,
// centralizing the only interop surface with the oracle (§9 "Description
// parsing").
func Describe(f Finding) Record {
	desc := f.Description

	if strings.Contains(desc, "uImage header") && strings.Contains(desc, "OS Kernel Image") {
		if size, ok := findDecimalField(desc, "image size:"); ok {
			return UImageKernel{Size: size}
		}
	}

	if strings.Contains(desc, "kernel offset:") && strings.Contains(desc, "rootfs offset:") {
		kOff, _ := findHexField(desc, "kernel offset:")
		rOff, _ := findHexField(desc, "rootfs offset:")
		kLen, hasKLen := findHexField(desc, "kernel length:")
		rLen, hasRLen := findHexField(desc, "rootfs length:")
		return TrxDual{
			KernelOffset: kOff, RootfsOffset: rOff,
			KernelLen: kLen, HasKernelLen: hasKLen,
			RootfsLen: rLen, HasRootfsLen: hasRLen,
		}
	}

	if strings.Contains(desc, "kernel version") {
		return KernelVersion{OS: desc, IsLinux: strings.Contains(desc, "Linux")}
	}

	if strings.Contains(desc, "original file name:") {
		if name, ok := findQuotedField(desc, "original file name:"); ok {
			return OriginalName{Name: name}
		}
	}

	return Other{}
}

// findDecimalField extracts the decimal digits following a comma-separated
// "key:" field, e.g. "image size: 1048576 bytes" -> 1048576.
func findDecimalField(desc, key string) (uint64, bool) {
	for _, stmt := range strings.Split(desc, ",") {
		if !strings.Contains(stmt, key) {
			continue
		}
		var digits strings.Builder
		for _, r := range stmt {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			continue
		}
		v, err := strconv.ParseUint(digits.String(), 10, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// findHexField extracts a "key: 0x...." hex value from a comma-separated
// description, e.g. "kernel offset: 0x40".
func findHexField(desc, key string) (uint64, bool) {
	for _, stmt := range strings.Split(desc, ",") {
		stmt = strings.TrimSpace(stmt)
		if !strings.Contains(stmt, key) {
			continue
		}
		parts := strings.SplitN(stmt, ":", 2)
		if len(parts) != 2 {
			continue
		}
		val := strings.TrimSpace(parts[1])
		val = strings.TrimPrefix(val, "0x")
		val = strings.TrimPrefix(val, "0X")
		// drop any trailing unit text such as " bytes"
		end := len(val)
		for i, r := range val {
			if !isHexDigit(r) {
				end = i
				break
			}
		}
		v, err := strconv.ParseUint(val[:end], 16, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// findQuotedField extracts the double-quoted value following "key:",
// e.g. `original file name: "fw.bin"` -> "fw.bin".
func findQuotedField(desc, key string) (string, bool) {
	idx := strings.Index(desc, key)
	if idx < 0 {
		return "", false
	}
	rest := desc[idx+len(key):]
	first := strings.Index(rest, `"`)
	if first < 0 {
		return "", false
	}
	rest = rest[first+1:]
	second := strings.Index(rest, `"`)
	if second < 0 {
		return "", false
	}
	return rest[:second], true
}
