package cache

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"What is Physical AI?", "what is physical ai"},
		{"  what   is\tphysical\nai  ", "what is physical ai"},
		{"hello ?!", "hello"},
		{"trailing dots...", "trailing dots"},
		{"keep inner: colons;", "keep inner: colons"},
		{"", ""},
		{"  ?!.,:;  ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"What is Physical AI?",
		"hello . ?",
		"  MIXED   Case  Query!!! ",
		"plain",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestKeyShortQueriesVerbatim(t *testing.T) {
	a := Key("What is physical AI?")
	b := Key("what is physical ai")
	if a != b {
		t.Fatalf("casing/punctuation variants should share a key: %q vs %q", a, b)
	}
	if a != "what is physical ai" {
		t.Fatalf("short keys should be the normalized text, got %q", a)
	}
	if Key("query one") == Key("query two") {
		t.Fatal("distinct short queries must not collide")
	}
}

func TestKeyLongQueriesHashed(t *testing.T) {
	long := strings.Repeat("a", 201)
	k1 := Key(long)
	k2 := Key(long)
	if k1 != k2 {
		t.Fatal("hashed key must be deterministic")
	}
	if len(k1) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(k1))
	}

	atThreshold := strings.Repeat("b", 200)
	if Key(atThreshold) != atThreshold {
		t.Fatal("200-char normalized query should be stored verbatim")
	}
}

func TestKeyThresholdCountsRunes(t *testing.T) {
	// 200 runes but 400 bytes: still under the threshold.
	wide := strings.Repeat("é", 200)
	if Key(wide) != wide {
		t.Fatal("200-rune multibyte query should be stored verbatim")
	}
	if k := Key(strings.Repeat("é", 201)); len(k) != 64 {
		t.Fatalf("201-rune query should be hashed, got %d-char key", len(k))
	}
}
