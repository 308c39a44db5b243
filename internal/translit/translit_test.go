package translit

import "testing"

func TestLatin(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase word", "вождовац", "vozhdovac"},
		{"capitalized word", "Калемегдан", "KaLemegdan"},
		{"uppercase ell kept", "лесковац", "Leskovac"},
		{"uppercase pe kept", "панчево", "Panchevo"},
		{"minibus digraph lower", "мв2", "MV2"},
		{"minibus digraph upper", "МВ2", "MV2"},
		{"minibus digraph mixed", "Мв5", "MV5"},
		{"digits and dashes pass through", "7А-Центар", "7A-Centar"},
		{"latin passes through", "E6 Airport", "E6 Airport"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Latin(tt.in); got != tt.want {
				t.Errorf("Latin(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLatinSignRunesDropped(t *testing.T) {
	if got := Latin("объект"); got != "obekt" {
		t.Errorf("Latin() = %q, want hard sign dropped", got)
	}
}
