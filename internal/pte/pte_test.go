package pte

import "testing"

func TestNewResident(t *testing.T) {
	p, err := New(true, 7, true, false, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !p.Present() || p.Swapped() || !p.Dirty() {
		t.Fatalf("unexpected flags: present=%v swapped=%v dirty=%v", p.Present(), p.Swapped(), p.Dirty())
	}
	if p.FPN() != 7 {
		t.Fatalf("FPN = %d, want 7", p.FPN())
	}
}

func TestNewResidentZeroFPNRejected(t *testing.T) {
	if _, err := New(true, 0, false, false, 0, 0); err == nil {
		t.Fatal("expected error for fpn=0 resident PTE")
	}
}

func TestNewNotPresentIsZero(t *testing.T) {
	p, err := New(false, 0, false, false, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p != 0 {
		t.Fatalf("non-present PTE = %#x, want 0", uint64(p))
	}
}

// TestSwapEncodingRoundTrip exercises spec.md §8 scenario 6: presence
// and swapped bits set, dirty cleared, swap (type, offset) recovered.
func TestSwapEncodingRoundTrip(t *testing.T) {
	p, err := New(true, 0, false, true, 3, 42)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !p.Present() || !p.Swapped() || p.Dirty() {
		t.Fatalf("unexpected flags: present=%v swapped=%v dirty=%v", p.Present(), p.Swapped(), p.Dirty())
	}
	if p.SwapType() != 3 || p.SwapOffset() != 42 {
		t.Fatalf("swap fields = (%d, %d), want (3, 42)", p.SwapType(), p.SwapOffset())
	}
}

func TestSetFPNClearsSwapped(t *testing.T) {
	var p PTE
	p.SetSwap(2, 99)
	if !p.Swapped() {
		t.Fatal("expected swapped after SetSwap")
	}
	p.SetFPN(5)
	if p.Swapped() {
		t.Fatal("expected swapped cleared after SetFPN")
	}
	if !p.Present() || p.FPN() != 5 {
		t.Fatalf("present=%v fpn=%d, want present, fpn=5", p.Present(), p.FPN())
	}
}

func TestRoundTripFieldExtraction(t *testing.T) {
	cases := []struct {
		name    string
		present bool
		fpn     uint32
		dirty   bool
		swapped bool
		swptyp  uint8
		swpoff  uint32
	}{
		{"resident clean", true, 1, false, false, 0, 0},
		{"resident dirty", true, 0xFFFFFF, true, false, 0, 0},
		{"swapped", true, 0, false, true, 15, 0xFFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := New(c.present, c.fpn, c.dirty, c.swapped, c.swptyp, c.swpoff)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.Present() != c.present || p.Dirty() != c.dirty || p.Swapped() != c.swapped {
				t.Fatalf("flags mismatch for %+v: got present=%v dirty=%v swapped=%v", c, p.Present(), p.Dirty(), p.Swapped())
			}
			if !c.swapped && p.FPN() != c.fpn {
				t.Fatalf("fpn = %d, want %d", p.FPN(), c.fpn)
			}
			if c.swapped && (p.SwapType() != c.swptyp || p.SwapOffset() != c.swpoff) {
				t.Fatalf("swap fields = (%d,%d), want (%d,%d)", p.SwapType(), p.SwapOffset(), c.swptyp, c.swpoff)
			}
		})
	}
}
