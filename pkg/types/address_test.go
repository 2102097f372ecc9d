package types

import "testing"

func TestSameLocationIgnoresCaseAndSpace(t *testing.T) {
	a := SavedAddress{Address: "12 Birch Lane", City: "Portland", State: "OR", ZipCode: "97201"}
	b := SavedAddress{Address: " 12 birch lane ", City: "PORTLAND", State: "or", ZipCode: "97201", FullName: "Someone Else"}

	if !a.SameLocation(b) {
		t.Fatal("expected addresses to dedupe on street+city+state+zip")
	}
}

func TestSameLocationDifferentStreet(t *testing.T) {
	a := SavedAddress{Address: "12 Birch Lane", City: "Portland", State: "OR", ZipCode: "97201"}
	b := SavedAddress{Address: "14 Birch Lane", City: "Portland", State: "OR", ZipCode: "97201"}

	if a.SameLocation(b) {
		t.Fatal("different streets must not dedupe")
	}
}
