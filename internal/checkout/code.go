package checkout

import (
	"crypto/rand"
	"fmt"
)

// orderCodeAlphabet drops I, O, 0 and 1. Its 32 symbols divide 256 evenly, so
// byte-mod sampling is unbiased.
const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultOrderCodeLength is used when the configured length is not positive.
const DefaultOrderCodeLength = 10

// CodeGenerator returns a new candidate order code.
type CodeGenerator func() (string, error)

// NewCodeGenerator draws codes of the given length from crypto/rand.
func NewCodeGenerator(length int) CodeGenerator {
	if length <= 0 {
		length = DefaultOrderCodeLength
	}
	return func() (string, error) {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for i, b := range buf {
			buf[i] = orderCodeAlphabet[int(b)%len(orderCodeAlphabet)]
		}
		return string(buf), nil
	}
}
