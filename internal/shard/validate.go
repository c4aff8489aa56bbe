package shard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxShareSetNameLen = 25
	MaxShares          = 255
	MinPasswordLen     = 6
	MaxPasswordLen     = 31

	BlobExt      = ".aes"
	FragmentsExt = ".frg"
)

var shareSetNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateShareSetName checks the base name shared by a blob and its fragments.
func ValidateShareSetName(name string) error {
	if !shareSetNamePattern.MatchString(name) {
		return fmt.Errorf("%w: name %q may only contain letters, digits, '_' and '-'", ErrValidation, name)
	}
	if len(name) > MaxShareSetNameLen {
		return fmt.Errorf("%w: name %q is longer than %d characters", ErrValidation, name, MaxShareSetNameLen)
	}
	return nil
}

// ValidateThreshold requires 2 < t <= n <= MaxShares.
func ValidateThreshold(n, t int) error {
	if n > MaxShares {
		return fmt.Errorf("%w: at most %d shares, got %d", ErrValidation, MaxShares, n)
	}
	if t <= 2 {
		return fmt.Errorf("%w: threshold must be greater than 2, got %d", ErrValidation, t)
	}
	if t > n {
		return fmt.Errorf("%w: threshold %d exceeds share count %d", ErrValidation, t, n)
	}
	return nil
}

// ValidatePassword requires between 6 and 31 characters.
func ValidatePassword(password []byte) error {
	n := utf8.RuneCount(password)
	if n < MinPasswordLen || n > MaxPasswordLen {
		return fmt.Errorf("%w: password must be %d to %d characters, got %d", ErrValidation, MinPasswordLen, MaxPasswordLen, n)
	}
	return nil
}

// ValidateBlobName checks a "<name>.aes" artifact name and returns <name>.
func ValidateBlobName(name string) (string, error) {
	return validateArtifactName(name, BlobExt)
}

// ValidateFragmentsName checks a "<name>.frg" artifact name and returns <name>.
func ValidateFragmentsName(name string) (string, error) {
	return validateArtifactName(name, FragmentsExt)
}

func validateArtifactName(name, ext string) (string, error) {
	base, ok := strings.CutSuffix(name, ext)
	if !ok {
		return "", fmt.Errorf("%w: %q must end in %s", ErrValidation, name, ext)
	}
	if err := ValidateShareSetName(base); err != nil {
		return "", err
	}
	return base, nil
}
