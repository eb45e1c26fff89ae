package binview

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru"
)

// segCacheSize bounds how many PT_LOAD payloads stay resident at once.
const segCacheSize = 8

// ELF is a View backed by an ELF object's loadable segments and symbol table.
type ELF struct {
	f        *elf.File
	order    binary.ByteOrder
	addrSize uint64
	segs     []segment
	progs    []*elf.Prog
	symbols  *symtab
	cache    *lru.Cache // prog index -> []byte
}

// NewELF builds a view from an already-opened elf.File.
func NewELF(f *elf.File) (*ELF, error) {
	var order binary.ByteOrder
	switch f.Data {
	case elf.ELFDATA2LSB:
		order = binary.LittleEndian
	case elf.ELFDATA2MSB:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("unsupported ELF data encoding %s", f.Data)
	}

	var addrSize uint64
	switch f.Class {
	case elf.ELFCLASS32:
		addrSize = 4
	case elf.ELFCLASS64:
		addrSize = 8
	default:
		return nil, fmt.Errorf("unsupported ELF class %s", f.Class)
	}

	e := &ELF{
		f:        f,
		order:    order,
		addrSize: addrSize,
	}

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Filesz == 0 {
			continue
		}
		// only file-backed bytes count as mapped content; BSS tails are
		// not extractable
		e.segs = append(e.segs, segment{addr: p.Vaddr, size: p.Filesz})
		e.progs = append(e.progs, p)
	}
	if len(e.segs) == 0 {
		return nil, fmt.Errorf("ELF has no loadable segments")
	}

	var syms []Symbol
	if elfSyms, err := f.Symbols(); err == nil {
		for _, s := range elfSyms {
			if s.Name == "" {
				continue
			}
			syms = append(syms, Symbol{Name: s.Name, Address: s.Value, Size: s.Size})
		}
	}
	if dynSyms, err := f.DynamicSymbols(); err == nil {
		for _, s := range dynSyms {
			if s.Name == "" {
				continue
			}
			syms = append(syms, Symbol{Name: s.Name, Address: s.Value, Size: s.Size})
		}
	}
	e.symbols = newSymtab(syms)

	e.cache, _ = lru.New(segCacheSize)

	return e, nil
}

// OpenELF opens the named file as an ELF view.
func OpenELF(name string) (*ELF, error) {
	f, err := elf.Open(name)
	if err != nil {
		return nil, err
	}
	e, err := NewELF(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return e, nil
}

func (e *ELF) Close() error {
	return e.f.Close()
}

func (e *ELF) ByteOrder() binary.ByteOrder { return e.order }

func (e *ELF) AddressSize() uint64 { return e.addrSize }

func (e *ELF) ValidAddress(addr uint64) bool {
	for _, s := range e.segs {
		if s.contains(addr) {
			return true
		}
	}
	return false
}

func (e *ELF) SymbolAt(addr uint64) (Symbol, bool) {
	return e.symbols.at(addr)
}

func (e *ELF) Symbols() []Symbol {
	return e.symbols.all()
}

func (e *ELF) segData(i int) ([]byte, error) {
	if d, ok := e.cache.Get(i); ok {
		return d.([]byte), nil
	}
	p := e.progs[i]
	data, err := io.ReadAll(p.Open())
	if err != nil {
		return nil, fmt.Errorf("failed to read segment at %#x: %w", p.Vaddr, err)
	}
	if uint64(len(data)) < p.Filesz {
		return nil, fmt.Errorf("segment at %#x truncated: %w", p.Vaddr, ErrShortRead)
	}
	e.cache.Add(i, data)
	return data, nil
}

func (e *ELF) ReadBytes(addr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	for i, s := range e.segs {
		if !s.contains(addr) {
			continue
		}
		if addr+length < addr || addr+length > s.addr+s.size {
			return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
		}
		data, err := e.segData(i)
		if err != nil {
			return nil, err
		}
		off := addr - s.addr
		out := make([]byte, length)
		copy(out, data[off:off+length])
		return out, nil
	}
	return nil, fmt.Errorf("read of %#x bytes at %#x: %w", length, addr, ErrShortRead)
}
