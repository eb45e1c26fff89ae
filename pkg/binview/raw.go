package binview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// RawConfig describes a flat image that carries no self-describing header.
// Zero values mean little-endian, 64-bit, mapped at address 0.
type RawConfig struct {
	Base        uint64
	ByteOrder   binary.ByteOrder
	AddressSize uint64
}

// Raw is a View over a flat byte image mapped at a fixed base address.
// Raw images have no symbol table, so every extraction goes through the
// data_<ADDR> fallback naming path.
type Raw struct {
	r      io.ReaderAt
	closer io.Closer
	cfg    RawConfig
	size   uint64
}

// NewRaw builds a view over size bytes of r, mapped per cfg.
func NewRaw(r io.ReaderAt, size uint64, cfg RawConfig) (*Raw, error) {
	if cfg.ByteOrder == nil {
		cfg.ByteOrder = binary.LittleEndian
	}
	switch cfg.AddressSize {
	case 0:
		cfg.AddressSize = 8
	case 4, 8:
	default:
		return nil, fmt.Errorf("invalid address size %d (want 4 or 8)", cfg.AddressSize)
	}
	return &Raw{r: r, cfg: cfg, size: size}, nil
}

// NewRawBytes builds a view directly over an in-memory image.
func NewRawBytes(data []byte, cfg RawConfig) (*Raw, error) {
	return NewRaw(bytes.NewReader(data), uint64(len(data)), cfg)
}

// OpenRaw opens the named file as a raw image view.
func OpenRaw(name string, cfg RawConfig) (*Raw, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := NewRaw(f, uint64(fi.Size()), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

func (r *Raw) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

func (r *Raw) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

func (r *Raw) AddressSize() uint64 { return r.cfg.AddressSize }

func (r *Raw) ValidAddress(addr uint64) bool {
	return addr >= r.cfg.Base && addr < r.cfg.Base+r.size
}

func (r *Raw) SymbolAt(addr uint64) (Symbol, bool) {
	return Symbol{}, false
}

func (r *Raw) Symbols() []Symbol {
	return nil
}

func (r *Raw) ReadBytes(addr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if !r.ValidAddress(addr) || addr+length < addr || addr+length > r.cfg.Base+r.size {
		return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
	}
	out := make([]byte, length)
	if _, err := r.r.ReadAt(out, int64(addr-r.cfg.Base)); err != nil {
		return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
	}
	return out, nil
}
