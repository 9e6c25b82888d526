package utils

import (
	"crypto/rand"
	"math/big"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTempPassword returns a random password of the given length that is
// guaranteed to contain at least one letter and one digit.
func GenerateTempPassword(length int) (string, error) {
	if length < 2 {
		length = 12
	}
	for {
		buf := make([]byte, length)
		hasLetter, hasDigit := false, false
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
			if err != nil {
				return "", err
			}
			c := tempPasswordAlphabet[n.Int64()]
			buf[i] = c
			if c >= '0' && c <= '9' {
				hasDigit = true
			} else {
				hasLetter = true
			}
		}
		if hasLetter && hasDigit {
			return string(buf), nil
		}
	}
}
