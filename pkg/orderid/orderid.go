// Package orderid generates the human-shareable order numbers customers
// quote on support calls and admins paste into the dashboard.
package orderid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// Prefix brands every order number.
	Prefix = "MW-"
	// suffixLen at 10 chars over a 32-symbol alphabet gives ~50 bits of
	// randomness; the unique index on orders.order_number is the backstop.
	suffixLen = 10
)

// alphabet is Crockford base32: no I, L, O or U, so numbers survive being
// read over the phone.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// New returns a fresh order number, e.g. MW-4N7Q2KD9XF.
func New() (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order number: %w", err)
	}
	out := make([]byte, suffixLen)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return Prefix + string(out), nil
}

// Valid reports whether value has the shape of an order number this service
// could have issued.
func Valid(value string) bool {
	if !strings.HasPrefix(value, Prefix) {
		return false
	}
	suffix := value[len(Prefix):]
	if len(suffix) != suffixLen {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
