package catalog

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"lowercase", "PREMIUM HD", "premiumhd"},
		{"trim", "  Plano Top  ", "planotop"},
		{"accents", "Padrão Açaí", "padraoacai"},
		{"sem abbreviation", "Plano s/ Adulto", "planosemadulto"},
		{"com abbreviation", "Plano c/ HD", "planocomhd"},
		{"punctuation", "Full + Esportes (2 telas)", "fullesportes2telas"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expect {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expect)
			}
		})
	}
}

func TestNormalize_CaseAndAccentInsensitive(t *testing.T) {
	variants := []string{"Sem Adultos", "SEM ADULTOS", "sem adultos", "Sem Adultós"}
	want := Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestNormalize_AbbreviationEquivalence(t *testing.T) {
	if Normalize("Plano s/ Adulto") != Normalize("Plano sem Adulto") {
		t.Error("s/ should normalize to the same key as sem")
	}
	if Normalize("Plano c/ HD") != Normalize("Plano com HD") {
		t.Error("c/ should normalize to the same key as com")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Plano s/ Adulto", "PREMIUM C/ ADULTO", "Padrão Açaí", "já normalizado"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
