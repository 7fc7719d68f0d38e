// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// NewSessionID returns a fresh identifier for one survey session. It is
// stamped on every response row and audit-log entry the session produces.
func NewSessionID() string {
	return uuid.NewString()
}

// GenerateAdminKey creates an HMAC-based admin key for a survey.
// This is deterministic and verifiable
func GenerateAdminKey(surveyName, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(surveyName))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the survey
func ValidateAdminKey(surveyName, adminKey, salt string) error {
	expected := GenerateAdminKey(surveyName, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
