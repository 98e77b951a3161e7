package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	AdminPasswordLen = 12
	minPasswordLen   = 8

	passwordSymbols = "!@#$%&*"
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower   = "abcdefghijkmnopqrstuvwxyz"
	passwordDigits  = "23456789"
)

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GeneratePassword returns a password of length n (at least 8) containing an
// uppercase letter, a lowercase letter, a digit and a symbol. Do not log it.
func GeneratePassword(n int) (string, error) {
	if n < minPasswordLen {
		n = minPasswordLen
	}
	classes := []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols}
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols

	result := make([]byte, n)
	for i := range result {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		idx, err := randIndex(len(set))
		if err != nil {
			return "", fmt.Errorf("pick: %w", err)
		}
		result[i] = set[idx]
	}
	// Fisher-Yates so the guaranteed classes are not always in front
	for i := n - 1; i >= 1; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", fmt.Errorf("shuffle: %w", err)
		}
		result[i], result[j] = result[j], result[i]
	}
	return string(result), nil
}
