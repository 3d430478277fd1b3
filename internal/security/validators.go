package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Input length constraints
const (
	MaxRoomNameLength        = 100
	MaxParticipantNameLength = 50
	MaxStoryLength           = 500
	MinNameLength            = 1
)

var (
	// PocketBase ID regex - 15 character alphanumeric
	recordIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	// Name validation regex - Unicode letters, digits, spaces, apostrophes, hyphens, underscores, dots
	// \p{L} matches any Unicode letter (includes accented characters)
	// \p{N} matches any Unicode number
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidateRecordID validates that a string looks like a PocketBase record
// id (15 alphanumeric characters).
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if !recordIDRegex.MatchString(id) {
		return fmt.Errorf("invalid ID format")
	}
	return nil
}

// ValidateName validates a name string with length and character constraints.
// Returns the sanitized name.
func ValidateName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("name too short (min %d characters)", MinNameLength)
	}
	if len(name) > maxLen {
		return "", fmt.Errorf("name too long (max %d characters)", maxLen)
	}

	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("name contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}
	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("name contains potentially dangerous characters")
	}

	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("name contains control characters")
		}
	}

	return name, nil
}

// ValidateRoomName validates a room name.
func ValidateRoomName(name string) (string, error) {
	return ValidateName(name, MaxRoomNameLength)
}

// ValidateParticipantName validates a participant display name.
func ValidateParticipantName(name string) (string, error) {
	return ValidateName(name, MaxParticipantNameLength)
}

// ValidateStory sanitizes a free-text story label. Unlike names, an empty
// story is allowed (it clears the label).
func ValidateStory(story string) (string, error) {
	story = strings.TrimSpace(story)
	if story == "" {
		return "", nil
	}
	if len(story) > MaxStoryLength {
		return "", fmt.Errorf("story too long (max %d characters)", MaxStoryLength)
	}
	for _, r := range story {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("story contains control characters")
		}
	}
	return story, nil
}

// SanitizeErrorMessage removes storage internals from error messages
// before they reach clients.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	sensitivePatterns := []string{
		"sql",
		"database",
		"collection",
		"pocketbase",
		"constraint",
		"foreign key",
		"duplicate key",
		"no rows",
	}

	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}

	return err.Error()
}
