package shortcode

import "crypto/rand"

// Alphabet is the url-safe symbol set codes are drawn from.
const Alphabet = "0123456789-ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// Length is the fixed code length. 64^9 combinations make a collision
// on insert rare, but the generator does not guarantee uniqueness:
// the store's unique constraint is authoritative and callers retry
// with a fresh code on conflict.
const Length = 9

// Generate returns a random fixed-length short code.
func Generate() string {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic("shortcode: reading random bytes: " + err.Error())
	}

	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf)
}
