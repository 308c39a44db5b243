package routelist

import (
	"reflect"
	"strings"
	"testing"
)

const sampleDump = `
[red voznje](https://example.rs/linija/7/prikaz)
	7А-Центар
ostali tekst
[red voznje](https://example.rs/linija/24/prikaz)
nebitno [link]
	24-Земун
[red voznje](https://example.rs/linija/401/prikaz)
	мв401
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := map[string]string{
		"7":   "7A-Centar",
		"24":  "24-Zemun",
		"401": "MV401",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParseFirstNameWins(t *testing.T) {
	dump := `
[a](https://example.rs/linija/7/prikaz)
	прва
	друга
`
	got, err := Parse(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got["7"] != "Prva" {
		t.Errorf("Parse()[7] = %q, want the first candidate name", got["7"])
	}
}

func TestParseRouteWithoutNameIsDropped(t *testing.T) {
	dump := `
[a](https://example.rs/linija/7/prikaz)
nema imena
`
	got, err := Parse(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := got["7"]; ok {
		t.Errorf("Parse() invented a name for a route without one: %v", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	got, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Parse() = %v, want empty map", got)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, err := Parse(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := Parse(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse() is not deterministic: %v vs %v", first, second)
	}
}
