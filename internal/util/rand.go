package util

import (
	"crypto/rand"
	"encoding/base32"
	"io"
	"strings"
)

// CodeAlphabet is base32 without the look-alike characters 0/O and 1/I
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var codeEncoding = base32.NewEncoding(CodeAlphabet).WithPadding(base32.NoPadding)

// RandBase32 generates a random base32 string of n raw bytes, without padding
func RandBase32(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	return strings.TrimRight(s, "="), nil
}

// RandCode generates an n-character string over CodeAlphabet
func RandCode(n int) (string, error) {
	// 5 bits per character, rounded up to whole bytes
	b := make([]byte, (n*5+7)/8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return codeEncoding.EncodeToString(b)[:n], nil
}
