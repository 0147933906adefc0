package errors

import (
	"io"
	"os"
	"strings"
	"unicode"
)

// ValidateRepoPath checks that path names a readable directory.
// Failures use ErrCodeInvalidPath so callers can distinguish them from
// detection failures inside an otherwise valid repository.
func ValidateRepoPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "repository path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "repository path contains a null byte")
	}

	info, err := os.Stat(path)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "cannot access repository %s", path)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "repository path %s is not a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "cannot read repository %s", path)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return Wrap(ErrCodeInvalidPath, err, "cannot list repository %s", path)
	}
	return nil
}

// ValidateAppName validates the application name recorded with a run.
//
// The rules are deliberately narrow:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateAppName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "application name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "application name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "application name contains control characters")
		}
	}
	return nil
}
