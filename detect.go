package amdfw

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

type Type uint8

const (
	UNKNOWN Type = iota
	ELF
	MACHO
	RAW
)

func (t Type) String() string {
	switch t {
	case ELF:
		return "ELF"
	case MACHO:
		return "Mach-O"
	case RAW:
		return "raw"
	}
	return "unknown"
}

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

func checkELF(f *os.File) bool {
	f.Seek(0, io.SeekStart) // rewind file
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return false
	}
	return magic == elfMagic
}

func checkMachO(f *os.File) bool {
	f.Seek(0, io.SeekStart) // rewind file
	var magic uint32
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		return false
	}
	switch magic {
	case 0xfeedface, 0xfeedfacf, 0xcefaedfe, 0xcffaedfe:
		return true
	}
	return false
}

func detectFormat(f *os.File) (Type, error) {
	if checkELF(f) {
		return ELF, nil
	} else if checkMachO(f) {
		return MACHO, nil
	}
	return UNKNOWN, fmt.Errorf("failed to detect binary format")
}
