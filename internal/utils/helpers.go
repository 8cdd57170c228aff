// Package utils provides utility functions used throughout the application.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// GenerateRandomBytes generates n random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateRandomHex generates a random hex string of length n.
func GenerateRandomHex(n int) (string, error) {
	bytes, err := GenerateRandomBytes(n / 2)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateID generates a unique ID with a specified prefix.
func GenerateID(prefix string) (string, error) {
	randomPart, err := GenerateRandomHex(16)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Unix()

	if prefix == "" {
		return fmt.Sprintf("%x%s", timestamp, randomPart), nil
	}

	return fmt.Sprintf("%s_%x%s", prefix, timestamp, randomPart), nil
}

// ParseInt parses a string into an int64 with a default value on error.
func ParseInt(s string, defaultValue int64) int64 {
	if s == "" {
		return defaultValue
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}
