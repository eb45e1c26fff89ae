package types

import "testing"

func TestLayoutTable(t *testing.T) {
	tests := []struct {
		ft      FirmwareType
		sizeOff uint64
		offOff  uint64
		tag     string
	}{
		{GC, 0xC, 0x20, "GC"},
		{SDMA, 0x8, 0x10, "SDMA"},
		{Catalyst, 0xC, 0x20, "Catalyst"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := tt.ft.SizeFieldOffset(); got != tt.sizeOff {
				t.Errorf("SizeFieldOffset() = %#x, want %#x", got, tt.sizeOff)
			}
			if got := tt.ft.OffsetFieldOffset(); got != tt.offOff {
				t.Errorf("OffsetFieldOffset() = %#x, want %#x", got, tt.offOff)
			}
			if got := tt.ft.String(); got != tt.tag {
				t.Errorf("String() = %q, want %q", got, tt.tag)
			}
		})
	}
}

func TestParseFirmwareType(t *testing.T) {
	for _, ft := range FirmwareTypes {
		got, err := ParseFirmwareType(ft.String())
		if err != nil {
			t.Errorf("ParseFirmwareType(%q) error = %v", ft.String(), err)
		}
		if got != ft {
			t.Errorf("ParseFirmwareType(%q) = %v, want %v", ft.String(), got, ft)
		}
	}
	if _, err := ParseFirmwareType("bogus"); err == nil {
		t.Error("ParseFirmwareType(\"bogus\") succeeded")
	}
}

func TestRegistrationOrder(t *testing.T) {
	for i := 1; i < len(FirmwareTypes); i++ {
		if FirmwareTypes[i-1] >= FirmwareTypes[i] {
			t.Errorf("FirmwareTypes not in order at %d: %v >= %v", i, FirmwareTypes[i-1], FirmwareTypes[i])
		}
	}
}

func TestHeaderEnd(t *testing.T) {
	h := FirmwareHeader{BaseAddress: 0x1000, DataOffset: 0x2000, DataSize: 0x10}
	if h.End() != 0x2010 {
		t.Errorf("End() = %#x, want 0x2010", h.End())
	}

	// wraparound is representable; callers must detect it
	h = FirmwareHeader{DataOffset: ^uint64(0), DataSize: 2}
	if h.End() >= h.DataOffset {
		t.Errorf("End() = %#x did not wrap", h.End())
	}
}
