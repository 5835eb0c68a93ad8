package util

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName strips directory components and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "" || s == "." || s == "/" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// HasExt reports whether name ends in ext, ignoring case.
func HasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}
