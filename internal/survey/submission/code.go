package submission

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 6
)

// NewValidationCode returns six random upper-case base-36 characters.
func NewValidationCode() (string, error) {
	// 252 is the largest multiple of 36 below 256
	const limit = 252
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b < limit && len(out) < codeLength {
				out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			}
		}
	}
	return string(out), nil
}

// NewKeys draws a submission id and validation code for a new session.
func NewKeys() (Keys, error) {
	code, err := NewValidationCode()
	if err != nil {
		return Keys{}, err
	}
	return Keys{SubmissionID: uuid.NewString(), ValidationCode: code}, nil
}
