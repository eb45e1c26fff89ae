package binview

import (
	"encoding/binary"
	"errors"
	"io"
	"sort"
)

// ErrShortRead is returned when fewer bytes than requested back the given
// address range.
var ErrShortRead = errors.New("address range not fully backed by the image")

// Symbol is a named, addressed entity from the binary's symbol table.
// Size is zero when the format does not record one (Mach-O nlist entries).
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
}

// View is a read-only window onto a loaded binary's address space. It is the
// stand-in for a disassembler's binary view: byte reads at virtual addresses,
// the target's declared endianness and pointer width, symbol lookup, and the
// mapped-address predicate. Implementations are not safe for concurrent use.
type View interface {
	io.Closer

	// ReadBytes copies length bytes starting at the virtual address addr.
	// It fails with ErrShortRead if any part of the range is unmapped.
	ReadBytes(addr, length uint64) ([]byte, error)

	// ByteOrder is the target binary's declared default endianness.
	ByteOrder() binary.ByteOrder

	// AddressSize is the target's native pointer width in bytes, 4 or 8.
	AddressSize() uint64

	// SymbolAt returns the symbol whose address range encloses addr, or
	// ok=false when no symbol covers it. A symbol with zero recorded size
	// only matches its exact start address.
	SymbolAt(addr uint64) (Symbol, bool)

	// Symbols returns every known symbol, sorted by address.
	Symbols() []Symbol

	// ValidAddress reports whether addr is backed by real binary content.
	ValidAddress(addr uint64) bool
}

// symtab is the shared sorted-slice symbol index used by the ELF and Mach-O
// backends.
type symtab struct {
	syms []Symbol // sorted by Address
	ends []uint64 // ends[i] = max end of syms[0..i]
}

func newSymtab(syms []Symbol) *symtab {
	sort.Slice(syms, func(i, j int) bool { return syms[i].Address < syms[j].Address })
	ends := make([]uint64, len(syms))
	var end uint64
	for i, s := range syms {
		if e := s.Address + s.Size; e > end {
			end = e
		}
		ends[i] = end
	}
	return &symtab{syms: syms, ends: ends}
}

func (st *symtab) at(addr uint64) (Symbol, bool) {
	// first symbol above addr, then step back through the candidates
	// at/below it. Zero-size entries (local labels, ARM mapping symbols)
	// can sit inside a sized symbol's range, so a non-covering entry must
	// not end the search; the running max-end tells us when nothing
	// earlier can still cover addr.
	i := sort.Search(len(st.syms), func(i int) bool { return st.syms[i].Address > addr })
	for i--; i >= 0; i-- {
		s := st.syms[i]
		if s.Address == addr {
			return s, true
		}
		if s.Size > 0 && addr < s.Address+s.Size {
			return s, true
		}
		if st.ends[i] <= addr {
			break
		}
	}
	return Symbol{}, false
}

func (st *symtab) all() []Symbol {
	out := make([]Symbol, len(st.syms))
	copy(out, st.syms)
	return out
}

// segment is one mapped range of the image.
type segment struct {
	addr uint64 // first mapped virtual address
	size uint64 // mapped byte count
}

func (s segment) contains(addr uint64) bool {
	return addr >= s.addr && addr < s.addr+s.size
}
