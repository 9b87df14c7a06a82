package opf

import (
	"fmt"
	"strings"
)

var iTunesFiles = []string{"iTunesMetadata.plist", "iTunesArtwork"}

// GetFile reads a file from the archive.
func (p *Package) GetFile(filePath string) ([]byte, error) {
	if !p.archive.FileExists(filePath) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	data, err := p.archive.FileRead(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return data, nil
}

// CleanITunes removes the files iTunes adds to books it manages and
// reports how many were removed.
func (p *Package) CleanITunes() (int, error) {
	removed := 0
	for _, name := range iTunesFiles {
		if !p.archive.FileExists(name) {
			continue
		}
		if err := p.archive.FileReplace(name, nil); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Combine joins two slash separated paths, resolving "." and ".."
// segments. The result is absolute only if a is. b must be relative.
func Combine(a, b string) (string, error) {
	if strings.HasPrefix(b, "/") {
		return "", ErrInvalidIdentifierUsage
	}

	var parts []string
	for _, item := range append(strings.Split(a, "/"), strings.Split(b, "/")...) {
		switch item {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, item)
		}
	}

	combined := strings.Join(parts, "/")
	if strings.HasPrefix(a, "/") {
		return "/" + combined, nil
	}
	return combined, nil
}
