package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-amdfw/pkg/binview"
	"github.com/blacktop/go-amdfw/types"
)

var (
	// ErrNoHeader means the firmware header fields could not be decoded at
	// the resolved base address.
	ErrNoHeader = errors.New("no firmware header at address")
	// ErrOutOfRange means the decoded (offset, size) pair points outside
	// the binary's mapped space.
	ErrOutOfRange = errors.New("firmware range outside mapped image")
)

// Firmware holds one extracted blob and the name derived from its header
// symbol. The bytes are exactly the range the header referenced, no framing
// added.
type Firmware struct {
	Name string
	Data []byte
}

// SuggestedFilename is the default file name offered when saving.
func (f *Firmware) SuggestedFilename() string {
	return f.Name + ".bin"
}

// Resolve normalizes an invocation address to a header base and a display
// name. Inside a known symbol the symbol's start address wins over the raw
// address; the name loses a single leading underscore (C mangling). With no
// enclosing symbol the raw address is used as-is under a synthetic
// data_<ADDR> name.
func Resolve(v binview.View, addr uint64) (string, uint64) {
	if sym, ok := v.SymbolAt(addr); ok {
		return strings.TrimPrefix(sym.Name, "_"), sym.Address
	}
	return fmt.Sprintf("data_%X", addr), addr
}

func readSize(v binview.View, t types.FirmwareType, base uint64) (uint32, error) {
	data, err := v.ReadBytes(base+t.SizeFieldOffset(), 4)
	if err != nil {
		return 0, err
	}
	return v.ByteOrder().Uint32(data), nil
}

func readOffset(v binview.View, t types.FirmwareType, base uint64) (uint64, error) {
	data, err := v.ReadBytes(base+t.OffsetFieldOffset(), v.AddressSize())
	if err != nil {
		return 0, err
	}
	if v.AddressSize() == 4 {
		return uint64(v.ByteOrder().Uint32(data)), nil
	}
	return v.ByteOrder().Uint64(data), nil
}

// ReadHeader decodes the firmware header of type t at base. Both fields must
// decode or the whole read fails with ErrNoHeader.
func ReadHeader(v binview.View, t types.FirmwareType, base uint64) (types.FirmwareHeader, error) {
	off, err := readOffset(v, t, base)
	if err != nil {
		return types.FirmwareHeader{}, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	size, err := readSize(v, t, base)
	if err != nil {
		return types.FirmwareHeader{}, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	return types.FirmwareHeader{BaseAddress: base, DataOffset: off, DataSize: size}, nil
}

func inRange(v binview.View, h types.FirmwareHeader) bool {
	if h.End() < h.DataOffset { // size wrapped the address space
		return false
	}
	return v.ValidAddress(h.DataOffset) && v.ValidAddress(h.End())
}

// Extractable reports whether a valid, fully-mapped firmware header of type t
// exists at addr. It gates whether the extract action is offered at all, so
// it performs no reads beyond the two header fields and has no side effects.
func Extractable(v binview.View, t types.FirmwareType, addr uint64) bool {
	_, base := Resolve(v, addr)
	h, err := ReadHeader(v, t, base)
	if err != nil {
		return false
	}
	return inRange(v, h)
}

// Extract resolves, decodes and bounds-checks the header of type t at addr,
// then copies the referenced bytes out of the view.
func Extract(v binview.View, t types.FirmwareType, addr uint64) (*Firmware, error) {
	name, base := Resolve(v, addr)
	h, err := ReadHeader(v, t, base)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"type": t.String(),
		"name": name,
		"base": fmt.Sprintf("%#x", h.BaseAddress),
		"off":  fmt.Sprintf("%#x", h.DataOffset),
		"size": fmt.Sprintf("%#x", h.DataSize),
	}).Debug("firmware header")

	// the size field is data-controlled; never read before this passes
	if !inRange(v, h) {
		return nil, fmt.Errorf("%s at %#x: %w", t, addr, ErrOutOfRange)
	}

	data, err := v.ReadBytes(h.DataOffset, uint64(h.DataSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read firmware bytes: %w", err)
	}
	return &Firmware{Name: name, Data: data}, nil
}

// Save writes the blob to path, creating or truncating it. The handle is
// closed on every exit path so a failed write never leaves a half-flushed
// file behind.
func Save(f *Firmware, path string) (err error) {
	fo, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := fo.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if _, err = fo.Write(f.Data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
