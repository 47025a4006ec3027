package pgarray

import "testing"

func TestStringsRoundTrip(t *testing.T) {
	in := Strings{"a", "b c", `q"uote`}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var out Strings
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 3 || out[1] != "b c" || out[2] != `q"uote` {
		t.Fatalf("round trip = %#v", out)
	}
}

func TestStringsIntersects(t *testing.T) {
	a := Strings{"s1", "s2"}
	if !a.Intersects([]string{"x", "s2"}) {
		t.Fatal("expected intersection")
	}
	if a.Intersects([]string{"x"}) || a.Intersects(nil) {
		t.Fatal("unexpected intersection")
	}
}

func TestInt64sScanText(t *testing.T) {
	var out Int64s
	if err := out.Scan("{1,3,5}"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 3 || out[2] != 5 {
		t.Fatalf("got %#v", out)
	}
}
