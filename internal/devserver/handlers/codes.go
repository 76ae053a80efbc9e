package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpDigits = 6
	// referralAlphabet без похожих символов (0/O, 1/I)
	referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referralLength   = 8
)

// randomString returns n characters drawn uniformly from alphabet
func randomString(alphabet string, n int) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

func generateOTP() (string, error) {
	return randomString("0123456789", otpDigits)
}

func generateReferralCode() (string, error) {
	return randomString(referralAlphabet, referralLength)
}
