package pkg

import "math/rand"

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandString generates a short room code. Ambiguous characters (0/O,
// 1/I) are left out of the alphabet.
func RandString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
