package types

import "fmt"

// FirmwareType selects which embedded firmware header layout to use.
// The values are ordered; registration and display follow this order.
type FirmwareType uint8

const (
	// GC is the graphics-core microcode embedded by AMDRadeonX6000HWLibs & co.
	GC FirmwareType = iota
	// SDMA is the system DMA engine microcode.
	SDMA
	// Catalyst is the generic firmware blob layout used by the Catalyst
	// driver bundles (same field placement as GC).
	Catalyst
)

// FirmwareTypes lists every supported type in registration order.
var FirmwareTypes = []FirmwareType{GC, SDMA, Catalyst}

func (t FirmwareType) String() string {
	switch t {
	case GC:
		return "GC"
	case SDMA:
		return "SDMA"
	case Catalyst:
		return "Catalyst"
	}
	return fmt.Sprintf("FirmwareType(%d)", uint8(t))
}

// ParseFirmwareType maps a user-supplied tag (case-sensitive, as printed by
// String) back to a FirmwareType.
func ParseFirmwareType(s string) (FirmwareType, error) {
	for _, t := range FirmwareTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown firmware type %q", s)
}

// SizeFieldOffset is the displacement from the header base of the u32
// firmware byte count.
func (t FirmwareType) SizeFieldOffset() uint64 {
	switch t {
	case SDMA:
		return 0x8
	default: // GC, Catalyst
		return 0xC
	}
}

// OffsetFieldOffset is the displacement from the header base of the
// pointer/offset field. The field is read at the target's native address
// width, not a fixed size.
func (t FirmwareType) OffsetFieldOffset() uint64 {
	switch t {
	case SDMA:
		return 0x10
	default: // GC, Catalyst
		return 0x20
	}
}

// FirmwareHeader is the decoded header at a resolved base address. It is
// computed per invocation from live binary bytes and never cached, since the
// underlying image can change between calls.
type FirmwareHeader struct {
	BaseAddress uint64
	DataOffset  uint64
	DataSize    uint32
}

// End returns the first address past the firmware bytes. Callers must check
// for wraparound (End < DataOffset) before trusting it.
func (h FirmwareHeader) End() uint64 {
	return h.DataOffset + uint64(h.DataSize)
}

func (h FirmwareHeader) String() string {
	return fmt.Sprintf("hdr=%#x off=%#x size=%#x", h.BaseAddress, h.DataOffset, h.DataSize)
}
