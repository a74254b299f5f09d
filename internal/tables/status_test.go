package tables

import "testing"

func TestDeriveStatusOrdersPresentOnFreeTable(t *testing.T) {
	orders := []LineItem{{Product: "Pizza", UnitPrice: 20}}
	if got := DeriveStatus(StatusFree, orders, ""); got != StatusOccupied {
		t.Fatalf("expected occupied, got %s", got)
	}
}

func TestDeriveStatusOrdersPresentWithStoredOccupied(t *testing.T) {
	orders := []LineItem{{Product: "Taco", UnitPrice: 15}}
	if got := DeriveStatus(StatusReserved, orders, StatusOccupied); got != StatusOccupied {
		t.Fatalf("expected occupied, got %s", got)
	}
}

func TestDeriveStatusEmptyOrdersRevertsOccupied(t *testing.T) {
	if got := DeriveStatus(StatusOccupied, nil, ""); got != StatusFree {
		t.Fatalf("expected free, got %s", got)
	}
	if got := DeriveStatus(StatusOccupied, nil, StatusOccupied); got != StatusFree {
		t.Fatalf("expected free regardless of stored status, got %s", got)
	}
}

func TestDeriveStatusStoredOverrideWhenNoTransition(t *testing.T) {
	if got := DeriveStatus(StatusFree, nil, StatusReserved); got != StatusReserved {
		t.Fatalf("expected stored reserved to win, got %s", got)
	}
	if got := DeriveStatus(StatusCleaning, nil, StatusFree); got != StatusFree {
		t.Fatalf("expected stored free to win, got %s", got)
	}
}

func TestDeriveStatusOrdersRuleBeatsStoredOverride(t *testing.T) {
	// The orders-present check is evaluated before the stored override.
	orders := []LineItem{{Product: "Sopa", UnitPrice: 20}}
	if got := DeriveStatus(StatusFree, orders, StatusCleaning); got != StatusOccupied {
		t.Fatalf("expected occupied, got %s", got)
	}
}

func TestDeriveStatusUnchangedWithoutInputs(t *testing.T) {
	if got := DeriveStatus(StatusFree, nil, ""); got != StatusFree {
		t.Fatalf("expected free, got %s", got)
	}
	if got := DeriveStatus(StatusReserved, nil, StatusReserved); got != StatusReserved {
		t.Fatalf("expected reserved, got %s", got)
	}
}

func TestDeriveStatusMissingCurrentDefaultsToFree(t *testing.T) {
	if got := DeriveStatus("", nil, ""); got != StatusFree {
		t.Fatalf("expected free default, got %s", got)
	}
	orders := []LineItem{{Product: "Refresco", UnitPrice: 10}}
	if got := DeriveStatus("", orders, ""); got != StatusOccupied {
		t.Fatalf("expected occupied from default free, got %s", got)
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	orders := []LineItem{{Product: "Taco", UnitPrice: 15}}
	first := DeriveStatus(StatusFree, orders, StatusOccupied)
	second := DeriveStatus(StatusFree, orders, StatusOccupied)
	if first != second {
		t.Fatalf("expected identical outputs, got %s and %s", first, second)
	}
	if orders[0].Product != "Taco" {
		t.Fatalf("inputs must not be mutated")
	}
}

func TestNormalizeStatusLegacyNames(t *testing.T) {
	cases := map[string]Status{
		"libre":     StatusFree,
		"ocupada":   StatusOccupied,
		"reservada": StatusReserved,
		"limpieza":  StatusCleaning,
		"OCCUPIED":  StatusOccupied,
		"":          StatusFree,
		"garbage":   StatusFree,
	}
	for raw, expected := range cases {
		if got := NormalizeStatus(raw); got != expected {
			t.Fatalf("NormalizeStatus(%q) = %s, expected %s", raw, got, expected)
		}
	}
}
