// Package clipboard pulls download URLs off the system clipboard for
// acquire-only fetch runs.
package clipboard

import (
	"errors"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

// maxURLLength caps candidate length so pathological clipboard content
// is rejected cheaply.
const maxURLLength = 2048

var (
	// ErrClipboardRead indicates an error reading from the clipboard.
	ErrClipboardRead = errors.New("failed to read from clipboard")
	// ErrNoURLs indicates the clipboard held no usable URL.
	ErrNoURLs = errors.New("clipboard does not contain a valid URL")
)

// Only http(s) is fetchable; anything else from the clipboard is
// untrusted.
var allowedSchemes = map[string]bool{"http": true, "https": true}

// ValidURL returns the normalized form of text when it is a single
// fetchable URL.
func ValidURL(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxURLLength || strings.ContainsAny(text, "\n\r") {
		return "", false
	}

	parsed, err := url.Parse(text)
	if err != nil {
		return "", false
	}
	if !allowedSchemes[parsed.Scheme] || strings.TrimSpace(parsed.Host) == "" {
		return "", false
	}
	return parsed.String(), true
}

// ExtractURLs scans text one candidate per line and returns the valid
// URLs in order, without duplicates.
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		u, ok := ValidURL(line)
		if !ok || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// ReadURLs reads the clipboard and returns every usable URL on it.
func ReadURLs() ([]string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, ErrClipboardRead
	}

	urls := ExtractURLs(text)
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	return urls, nil
}
