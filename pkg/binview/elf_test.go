package binview

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"testing"
)

// makeELF assembles a minimal ELF64 image with a single PT_LOAD segment
// mapping payload at vaddr 0x400000, in the given byte order.
func makeELF(t *testing.T, order binary.ByteOrder, payload []byte) *elf.File {
	t.Helper()

	const (
		ehsize = 64
		phsize = 56
		vaddr  = 0x400000
	)

	var buf bytes.Buffer

	ident := [16]byte{0x7f, 'E', 'L', 'F', 2 /* ELFCLASS64 */, 1 /* ELFDATA2LSB */, 1}
	if order == binary.BigEndian {
		ident[5] = 2 // ELFDATA2MSB
	}
	buf.Write(ident[:])

	w := func(v interface{}) { binary.Write(&buf, order, v) }
	w(uint16(elf.ET_EXEC))
	w(uint16(elf.EM_X86_64))
	w(uint32(1))      // e_version
	w(uint64(vaddr))  // e_entry
	w(uint64(ehsize)) // e_phoff
	w(uint64(0))      // e_shoff
	w(uint32(0))      // e_flags
	w(uint16(ehsize)) // e_ehsize
	w(uint16(phsize)) // e_phentsize
	w(uint16(1))      // e_phnum
	w(uint16(0))      // e_shentsize
	w(uint16(0))      // e_shnum
	w(uint16(0))      // e_shstrndx

	w(uint32(elf.PT_LOAD))
	w(uint32(elf.PF_R))
	w(uint64(ehsize + phsize))   // p_offset
	w(uint64(vaddr))             // p_vaddr
	w(uint64(vaddr))             // p_paddr
	w(uint64(len(payload)))      // p_filesz
	w(uint64(len(payload) + 64)) // p_memsz, trailing BSS
	w(uint64(0x1000))            // p_align

	buf.Write(payload)

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to parse synthesized ELF: %v", err)
	}
	return f
}

func TestELFView(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4}
	e, err := NewELF(makeELF(t, binary.LittleEndian, payload))
	if err != nil {
		t.Fatalf("NewELF() error = %v", err)
	}
	defer e.Close()

	if e.ByteOrder() != binary.LittleEndian {
		t.Errorf("ByteOrder() = %v, want little-endian", e.ByteOrder())
	}
	if e.AddressSize() != 8 {
		t.Errorf("AddressSize() = %d, want 8", e.AddressSize())
	}

	got, err := e.ReadBytes(0x400000, 4)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(got, payload[:4]) {
		t.Errorf("ReadBytes() = % x, want % x", got, payload[:4])
	}

	// repeat read comes out of the segment cache
	got, err = e.ReadBytes(0x400004, 4)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(got, payload[4:]) {
		t.Errorf("ReadBytes() = % x, want % x", got, payload[4:])
	}

	// only file-backed bytes are mapped; the BSS tail is not
	if e.ValidAddress(0x400000 + uint64(len(payload))) {
		t.Error("ValidAddress() = true past file-backed bytes")
	}
	if _, err := e.ReadBytes(0x400006, 4); !errors.Is(err, ErrShortRead) {
		t.Errorf("ReadBytes() past segment error = %v, want ErrShortRead", err)
	}

	if _, ok := e.SymbolAt(0x400000); ok {
		t.Error("SymbolAt() found a symbol in a stripped ELF")
	}
}

func TestELFViewBigEndian(t *testing.T) {
	e, err := NewELF(makeELF(t, binary.BigEndian, []byte{0, 0, 0, 1}))
	if err != nil {
		t.Fatalf("NewELF() error = %v", err)
	}
	defer e.Close()

	if e.ByteOrder() != binary.BigEndian {
		t.Errorf("ByteOrder() = %v, want big-endian", e.ByteOrder())
	}
	got, err := e.ReadBytes(0x400000, 4)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if e.ByteOrder().Uint32(got) != 1 {
		t.Errorf("decoded %#x, want 1", e.ByteOrder().Uint32(got))
	}
}
