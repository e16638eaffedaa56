package geocode

import (
	"fmt"
	"sync"
	"testing"
)

var resolverFixture = []PlaceEntry{
	{Name: "Paris", OfficialName: "Paris", CountryCode: "FR", GeonameID: 2988507, LocationType: LocationCity, Population: 2138551, Latitude: 48.85, Longitude: 2.35},
	{Name: "Paris", OfficialName: "Paris", CountryCode: "US", GeonameID: 4717560, LocationType: LocationPlace, Population: 35000, Latitude: 33.66, Longitude: -95.55},
	{Name: "Parigi", OfficialName: "Paris", CountryCode: "FR", GeonameID: 2988507, LocationType: LocationCity, Population: 2138551, Latitude: 48.85, Longitude: 2.35},
	{Name: "Europe", OfficialName: "Europe", GeonameID: 6255148, LocationType: LocationContinent},
}

func TestDecodeKeepsStoredOrder(t *testing.T) {
	r := NewResolver(resolverFixture)

	got := r.Decode("Paris")
	if len(got) != 2 {
		t.Fatalf("Decode(Paris) returned %d entries, want 2", len(got))
	}
	if got[0] != resolverFixture[0] || got[1] != resolverFixture[1] {
		t.Errorf("Decode(Paris) = %+v, want the stored entries in order", got)
	}

	alt := r.Decode("Parigi")
	if len(alt) != 1 || alt[0].OfficialName != "Paris" {
		t.Errorf("Decode(Parigi) = %+v", alt)
	}
	if cont := r.Decode("Europe"); len(cont) != 1 || cont[0].CountryCode != "" {
		t.Errorf("Decode(Europe) = %+v", cont)
	}
}

func TestDecodeIsExact(t *testing.T) {
	r := NewResolver(resolverFixture)
	for _, q := range []string{"paris", "PARIS", " Paris", "Paris ", "Pari", ""} {
		if got := r.Decode(q); got != nil {
			t.Errorf("Decode(%q) = %+v, want nil", q, got)
		}
	}
}

func TestLookupChoosesCity(t *testing.T) {
	r := NewResolver(resolverFixture)
	got, ok := r.Lookup("Paris")
	if !ok || got.CountryCode != "FR" {
		t.Errorf("Lookup(Paris) = %+v, %v", got, ok)
	}
	if _, ok := r.Lookup("Atlantis"); ok {
		t.Error("Lookup(Atlantis) should not match")
	}
}

func TestResolverLen(t *testing.T) {
	if n := NewResolver(resolverFixture).Len(); n != len(resolverFixture) {
		t.Errorf("Len() = %d, want %d", n, len(resolverFixture))
	}
	if n := NewResolver(nil).Len(); n != 0 {
		t.Errorf("Len() of empty resolver = %d", n)
	}
}

func TestDecodeConcurrent(t *testing.T) {
	r := NewResolver(resolverFixture)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if len(r.Decode("Paris")) != 2 {
					t.Error("concurrent Decode returned wrong result")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestStringInterner(t *testing.T) {
	si := newStringInterner[uint8](4)
	if idx := si.intern(""); idx != 0 {
		t.Errorf("empty string interned at %d, want 0", idx)
	}
	a := si.intern("city")
	b := si.intern("place")
	if a == b {
		t.Fatal("distinct strings share an index")
	}
	if si.intern("city") != a {
		t.Error("re-interning returned a new index")
	}
	if si.get(a) != "city" || si.get(b) != "place" {
		t.Errorf("get returned %q, %q", si.get(a), si.get(b))
	}
	if si.get(200) != "" {
		t.Error("unknown index should map to the empty string")
	}
}

func TestStringInternerOverflow(t *testing.T) {
	si := newStringInterner[uint8](256)
	for i := 1; i < 256; i++ {
		si.intern(fmt.Sprint(i))
	}
	defer func() {
		if recover() == nil {
			t.Error("interning past the index range should panic")
		}
	}()
	si.intern("one too many")
}
