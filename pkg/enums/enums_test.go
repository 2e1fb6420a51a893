package enums

import "testing"

func TestParseCheckoutStatus(t *testing.T) {
	for _, raw := range []string{"idle", "processing", "success", "error"} {
		status, err := ParseCheckoutStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if status.String() != raw {
			t.Fatalf("expected %q got %q", raw, status)
		}
	}
	if _, err := ParseCheckoutStatus("IDLE"); err == nil {
		t.Fatalf("parsing is case sensitive")
	}
}

func TestProductTypeIsValid(t *testing.T) {
	if !ProductTypeHoodie.IsValid() {
		t.Fatalf("hoodie should be valid")
	}
	if ProductType("sticker").IsValid() {
		t.Fatalf("sticker is not in the catalog")
	}
}

func TestParseFitVerdictRejectsUnknown(t *testing.T) {
	if _, err := ParseFitVerdict("meh"); err == nil {
		t.Fatalf("expected error for unknown verdict")
	}
}
