package vendors

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The Netplay customer listing is loosely shaped: ids come back as
// strings or numbers, and "server"/"package" may be a plain string or a
// nested {id, name} object depending on panel version. These helpers
// probe a decoded map without panicking on the wrong shape.

func stringField(obj map[string]interface{}, field string) string {
	switch v := obj[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// nameField returns obj[field] when it is a string, or the "name" of a
// nested object.
func nameField(obj map[string]interface{}, field string) string {
	switch v := obj[field].(type) {
	case string:
		return v
	case map[string]interface{}:
		return stringField(v, "name")
	}
	return ""
}

// renewalMarker prefixes the due date inside the renew-confirmation
// template the panel stores per customer.
const renewalMarker = "🗓️ Próximo Vencimento: "

// renewalFromTemplate pulls the next renewal date out of the customer's
// renew-confirmation template, or "" when the template has none.
func renewalFromTemplate(obj map[string]interface{}) string {
	template := stringField(obj, "customer_renew_confirmation_template")
	_, after, found := strings.Cut(template, renewalMarker)
	if !found {
		return ""
	}
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSpace(after)
}
