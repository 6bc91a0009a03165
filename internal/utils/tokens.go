package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// RandomHex returns nBytes of crypto/rand entropy, hex-encoded.
func RandomHex(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func NewRefreshToken() (string, error) {
	return RandomHex(32)
}

// без похожих символов (0/O, 1/l/I)
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TempPassword generates the one-off password sent with a team invite.
func TempPassword(length int) (string, error) {
	if length < 8 {
		length = 12
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
