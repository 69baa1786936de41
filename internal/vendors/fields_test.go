package vendors

import (
	"encoding/json"
	"testing"
)

func TestStringField(t *testing.T) {
	obj := map[string]interface{}{
		"name":  "hello",
		"id":    float64(42),
		"num":   json.Number("99"),
		"empty": nil,
		"flag":  true,
	}
	tests := []struct {
		field  string
		expect string
	}{
		{"name", "hello"},
		{"id", "42"},
		{"num", "99"},
		{"empty", ""},
		{"flag", ""},
		{"missing", ""},
	}
	for _, tc := range tests {
		if got := stringField(obj, tc.field); got != tc.expect {
			t.Errorf("stringField(%q) = %q, want %q", tc.field, got, tc.expect)
		}
	}
}

func TestNameField(t *testing.T) {
	obj := map[string]interface{}{
		"server":  map[string]interface{}{"id": float64(1), "name": "Servidor Um"},
		"package": "PREMIUM HD",
		"broken":  []interface{}{"x"},
	}
	if got := nameField(obj, "server"); got != "Servidor Um" {
		t.Errorf("nameField(server) = %q, want Servidor Um", got)
	}
	if got := nameField(obj, "package"); got != "PREMIUM HD" {
		t.Errorf("nameField(package) = %q, want PREMIUM HD", got)
	}
	if got := nameField(obj, "broken"); got != "" {
		t.Errorf("nameField(broken) = %q, want empty", got)
	}
	if got := nameField(obj, "missing"); got != "" {
		t.Errorf("nameField(missing) = %q, want empty", got)
	}
}

func TestRenewalFromTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expect   string
	}{
		{"present", "Olá!\n🗓️ Próximo Vencimento: 10/09/2026\nObrigado", "10/09/2026"},
		{"at end", "🗓️ Próximo Vencimento: 01/01/2027", "01/01/2027"},
		{"absent", "Olá, tudo bem?", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obj := map[string]interface{}{"customer_renew_confirmation_template": tc.template}
			if got := renewalFromTemplate(obj); got != tc.expect {
				t.Errorf("renewalFromTemplate = %q, want %q", got, tc.expect)
			}
		})
	}
}
