package amdfw

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-amdfw/pkg/binview"
	"github.com/blacktop/go-amdfw/pkg/extract"
	"github.com/blacktop/go-amdfw/types"
)

// AMDFW wraps one loaded binary and exposes the firmware extraction
// operations against it. It holds no state across calls beyond the view
// itself; headers are decoded fresh on every operation.
type AMDFW struct {
	view   binview.View
	closer io.Closer
}

// Open opens the named file, detects its format (ELF or Mach-O) and prepares
// a view for extraction. Use OpenRaw for flat images.
func Open(name string) (*AMDFW, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	format, err := detectFormat(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	var view binview.View
	switch format {
	case ELF:
		view, err = binview.OpenELF(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open ELF: %w", err)
		}
	case MACHO:
		view, err = binview.OpenMachO(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open Mach-O: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown binary format")
	}

	log.WithFields(log.Fields{
		"format":    format.String(),
		"endian":    view.ByteOrder().String(),
		"addr_size": view.AddressSize(),
		"symbols":   len(view.Symbols()),
	}).Debug("opened binary")

	return &AMDFW{view: view, closer: view}, nil
}

// OpenRaw opens the named file as a flat image with the given mapping.
func OpenRaw(name string, cfg binview.RawConfig) (*AMDFW, error) {
	view, err := binview.OpenRaw(name, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw image: %w", err)
	}
	return &AMDFW{view: view, closer: view}, nil
}

// NewAMDFW wraps an existing view. The caller keeps ownership of the view.
func NewAMDFW(v binview.View) *AMDFW {
	return &AMDFW{view: v}
}

// Close closes the underlying binary.
// If the AMDFW was created with NewAMDFW, Close has no effect.
func (a *AMDFW) Close() error {
	var err error
	if a.closer != nil {
		err = a.closer.Close()
		a.closer = nil
	}
	return err
}

// View exposes the underlying binary view.
func (a *AMDFW) View() binview.View { return a.view }

// Extractable reports whether firmware of type t can be extracted at addr.
func (a *AMDFW) Extractable(t types.FirmwareType, addr uint64) bool {
	return extract.Extractable(a.view, t, addr)
}

// Extract pulls the firmware blob of type t referenced by the header at addr.
func (a *AMDFW) Extract(t types.FirmwareType, addr uint64) (*extract.Firmware, error) {
	return extract.Extract(a.view, t, addr)
}

// ExtractTo extracts and writes the blob into dir under its suggested name,
// returning the written path.
func (a *AMDFW) ExtractTo(t types.FirmwareType, addr uint64, dir string) (string, error) {
	fw, err := a.Extract(t, addr)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fw.SuggestedFilename())
	if err := extract.Save(fw, path); err != nil {
		return "", err
	}
	log.Infof("Created %s", path)
	return path, nil
}

// Candidate is one symbol at which a firmware header validated.
type Candidate struct {
	Type   types.FirmwareType
	Name   string
	Header types.FirmwareHeader
}

// Scan sweeps the symbol table and returns every location where a firmware
// header of any type decodes and bounds-checks. The progress callback, if
// non-nil, is invoked once per symbol visited.
func (a *AMDFW) Scan(progress func()) []Candidate {
	var out []Candidate
	for _, sym := range a.view.Symbols() {
		for _, t := range types.FirmwareTypes {
			if !extract.Extractable(a.view, t, sym.Address) {
				continue
			}
			name, base := extract.Resolve(a.view, sym.Address)
			h, err := extract.ReadHeader(a.view, t, base)
			if err != nil {
				continue
			}
			out = append(out, Candidate{Type: t, Name: name, Header: h})
		}
		if progress != nil {
			progress()
		}
	}
	return out
}

// ExtractAll writes every candidate into dir and returns the written paths.
// GC and Catalyst share a header layout, so a candidate whose name and header
// match one already written is skipped; a name that recurs with a different
// header (say a symbol valid as both GC and SDMA) gets the type tag appended
// to keep the files apart. Failures are reported and skipped.
func (a *AMDFW) ExtractAll(cands []Candidate, dir string) []string {
	type blob struct {
		name string
		hdr  types.FirmwareHeader
	}
	seen := make(map[blob]bool)
	named := make(map[string]bool)

	var paths []string
	for _, c := range cands {
		k := blob{name: c.Name, hdr: c.Header}
		if seen[k] {
			continue
		}
		seen[k] = true

		name := c.Name + ".bin"
		if named[c.Name] {
			name = fmt.Sprintf("%s_%s.bin", c.Name, c.Type)
		}
		named[c.Name] = true

		fw, err := a.Extract(c.Type, c.Header.BaseAddress)
		if err != nil {
			log.Errorf("failed to extract %s at %#x: %v", c.Name, c.Header.BaseAddress, err)
			continue
		}
		path := filepath.Join(dir, name)
		if err := extract.Save(fw, path); err != nil {
			log.Errorf("failed to save %s: %v", path, err)
			continue
		}
		log.Infof("Created %s", path)
		paths = append(paths, path)
	}
	return paths
}

// Lookup resolves a user-supplied location, either a hex/decimal address or
// a symbol name (with or without its leading underscore), to an address.
func (a *AMDFW) Lookup(loc string) (uint64, error) {
	if addr, err := strconv.ParseUint(loc, 0, 64); err == nil {
		return addr, nil
	}
	for _, sym := range a.view.Symbols() {
		if sym.Name == loc || strings.TrimPrefix(sym.Name, "_") == loc {
			return sym.Address, nil
		}
	}
	return 0, fmt.Errorf("no symbol named %q", loc)
}
