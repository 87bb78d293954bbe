// Package validate contains simple input validation helpers.
package validate

import (
	"errors"
	"net/mail"
	"path/filepath"
	"strings"
)

// Email validates an email address using the mail package parser. It rejects
// addresses with a display-name part so that the stored value is the bare
// address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return errors.New("invalid email address")
	}
	if addr.Address != s {
		return errors.New("invalid email address")
	}
	return nil
}

// DisplayName validates an account display name.
func DisplayName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("display name is required")
	}
	if len(s) > 128 {
		return errors.New("display name is too long")
	}
	return nil
}

// EntryName validates the name of a file or directory to be created inside a
// storage tree. Names containing path separators or equal to "." or ".." can
// never name a direct child.
func EntryName(s string) error {
	if s == "" {
		return errors.New("name is required")
	}
	if s == "." || s == ".." {
		return errors.New("invalid name")
	}
	if strings.ContainsAny(s, `/\`) {
		return errors.New("name cannot contain path separators")
	}
	return nil
}

// RootPath validates and normalizes the storage root path.
func RootPath(p string) (string, error) {
	if p == "" {
		return "", errors.New("root path is required")
	}
	clean := filepath.Clean(p)
	if !filepath.IsAbs(clean) {
		return "", errors.New("root path must be absolute")
	}
	// Reject volume root ("/", "C:\\", etc.).
	if filepath.Dir(clean) == clean {
		return "", errors.New("root path cannot be filesystem root")
	}
	clean = strings.TrimRight(clean, string(filepath.Separator))
	if clean == "" {
		return "", errors.New("invalid root path")
	}
	return clean, nil
}
