package usecase

import (
	"testing"

	"github.com/google/uuid"
)

func TestAssignID(t *testing.T) {
	t.Run("keeps upstream id verbatim", func(t *testing.T) {
		id, derived := AssignID("SKU-001/A", "Phone", "Amazon")
		if id != "SKU-001/A" {
			t.Errorf("id = %v, want SKU-001/A", id)
		}
		if derived {
			t.Error("upstream id should not be reported as derived")
		}
	})

	t.Run("derives from name and vendor", func(t *testing.T) {
		id, derived := AssignID("", "Apple iPhone 15 Pro Max 256GB", "Amazon.in")
		if id != "appleiphone15promax2-amazonin" {
			t.Errorf("id = %v, want appleiphone15promax2-amazonin", id)
		}
		if !derived {
			t.Error("expected derived id")
		}
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		first, _ := AssignID("", "Galaxy S24", "Flipkart")
		second, _ := AssignID("", "Galaxy S24", "Flipkart")
		if first != second {
			t.Errorf("ids differ: %v vs %v", first, second)
		}
	})

	t.Run("derives with vendor only", func(t *testing.T) {
		id, derived := AssignID("", "", "Croma")
		if id != "-croma" || !derived {
			t.Errorf("id = %v derived = %v, want -croma true", id, derived)
		}
	})

	t.Run("falls back to random id without name or vendor", func(t *testing.T) {
		first, derived := AssignID("", "", "")
		second, _ := AssignID("", "", "")
		if derived {
			t.Error("random id should not be reported as derived")
		}
		if _, err := uuid.Parse(first); err != nil {
			t.Errorf("expected uuid, got %v", first)
		}
		if first == second {
			t.Error("random ids should differ")
		}
	})

	t.Run("symbols only counts as missing", func(t *testing.T) {
		id, derived := AssignID("", "***", "!!")
		if derived {
			t.Errorf("expected random id, got derived %v", id)
		}
	})
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Galaxy S24 Ultra": "galaxys24ultra",
		"Reliance-Digital": "reliancedigital",
		"":                 "",
		"₹ Café 2":         "caf2",
	}
	for input, want := range tests {
		if got := slug(input); got != want {
			t.Errorf("slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUniqueID(t *testing.T) {
	seen := map[string]int{}
	got := []string{
		uniqueID("phone-amazon", seen),
		uniqueID("phone-amazon", seen),
		uniqueID("phone-amazon", seen),
		uniqueID("phone-amazon-2", seen),
	}
	want := []string{"phone-amazon", "phone-amazon-2", "phone-amazon-3", "phone-amazon-2-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniqueID #%d = %v, want %v", i, got[i], want[i])
		}
	}
}
