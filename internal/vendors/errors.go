// Package vendors holds the thin HTTP gateways for the two provider
// APIs (Netplay and Maxplayer) and the shared session/token handling.
package vendors

import (
	"errors"
	"fmt"
)

// ErrAuth means a vendor login failed or returned no usable token.
var ErrAuth = errors.New("vendor authentication failed")

// ErrValidation means the caller omitted a required field or filter.
var ErrValidation = errors.New("validation failed")

// ErrNotFound means a vendor lookup returned no results.
var ErrNotFound = errors.New("not found")

// VendorError is a non-2xx response from a vendor call, carrying the
// status code and whatever message the vendor body exposed.
type VendorError struct {
	Status  int
	Message string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor returned HTTP %d: %s", e.Status, e.Message)
}
