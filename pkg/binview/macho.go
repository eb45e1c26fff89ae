package binview

import (
	"encoding/binary"
	"fmt"

	"github.com/blacktop/go-macho"
	mtypes "github.com/blacktop/go-macho/types"
)

// MachO is a View backed by a Mach-O image's segments and nlist symbols.
// Mach-O records no symbol sizes, so enclosing-symbol lookup degrades to
// exact-address matches.
type MachO struct {
	m       *macho.File
	segs    []segment
	symbols *symtab
}

// NewMachO builds a view from an already-opened macho.File.
func NewMachO(m *macho.File) (*MachO, error) {
	v := &MachO{m: m}

	for _, seg := range m.Segments() {
		if seg.Filesz == 0 || seg.Name == "__PAGEZERO" {
			continue
		}
		v.segs = append(v.segs, segment{addr: seg.Addr, size: seg.Filesz})
	}
	if len(v.segs) == 0 {
		return nil, fmt.Errorf("Mach-O has no mapped segments")
	}

	var syms []Symbol
	if m.Symtab != nil {
		for _, s := range m.Symtab.Syms {
			if s.Name == "" || s.Value == 0 {
				continue
			}
			syms = append(syms, Symbol{Name: s.Name, Address: s.Value})
		}
	}
	v.symbols = newSymtab(syms)

	return v, nil
}

// OpenMachO opens the named file as a Mach-O view.
func OpenMachO(name string) (*MachO, error) {
	m, err := macho.Open(name)
	if err != nil {
		return nil, err
	}
	v, err := NewMachO(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return v, nil
}

func (v *MachO) Close() error {
	return v.m.Close()
}

func (v *MachO) ByteOrder() binary.ByteOrder { return v.m.ByteOrder }

func (v *MachO) AddressSize() uint64 {
	if v.m.Magic == mtypes.Magic64 {
		return 8
	}
	return 4
}

func (v *MachO) ValidAddress(addr uint64) bool {
	for _, s := range v.segs {
		if s.contains(addr) {
			return true
		}
	}
	return false
}

func (v *MachO) SymbolAt(addr uint64) (Symbol, bool) {
	return v.symbols.at(addr)
}

func (v *MachO) Symbols() []Symbol {
	return v.symbols.all()
}

func (v *MachO) ReadBytes(addr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	for _, s := range v.segs {
		if !s.contains(addr) {
			continue
		}
		if addr+length < addr || addr+length > s.addr+s.size {
			return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
		}
		off, err := v.m.GetOffset(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to map address %#x to file offset: %w", addr, err)
		}
		out := make([]byte, length)
		if n, err := v.m.ReadAt(out, int64(off)); err != nil || n != len(out) {
			return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
		}
		return out, nil
	}
	return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
}
