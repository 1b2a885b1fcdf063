package models

import "testing"

func TestCategories_ReturnsCopy(t *testing.T) {
	a := Categories()
	if len(a) == 0 || a[0] != "Food" {
		t.Fatalf("unexpected catalog: %v", a)
	}
	a[0] = "mutated"
	if b := Categories(); b[0] != "Food" {
		t.Errorf("catalog mutated through returned slice: %v", b)
	}
}
