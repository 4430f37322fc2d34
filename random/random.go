// Package random produces short unguessable strings, used to suffix
// banner object keys so overwriting uploads never collide.
package random

import (
	crand "crypto/rand"
	"math/big"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// String returns a random string of the given length drawn from the
// crypto/rand source. It panics only if the system source is broken.
func String(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := crand.Int(crand.Reader, max)
		if err != nil {
			panic("random: system entropy source unavailable: " + err.Error())
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}
