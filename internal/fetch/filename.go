package fetch

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
)

// sniffLen is how much of the body gets read up front for magic-byte
// detection. filetype needs at most 262 bytes; 512 matches
// http.DetectContentType.
const sniffLen = 512

// deriveFilename picks a cache filename for a response. Preference
// order is the Content-Disposition header, then a filename-ish query
// parameter, then the URL path. Because magic-byte detection consumes
// the start of the body, the returned reader replaces resp.Body.
func deriveFilename(rawURL string, resp *http.Response) (string, io.Reader, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}

	var candidate string
	if _, name, err := httpheader.ContentDisposition(resp.Header); err == nil && name != "" {
		candidate = name
	}
	if candidate == "" {
		q := parsed.Query()
		if name := q.Get("filename"); name != "" {
			candidate = name
		} else if name := q.Get("file"); name != "" {
			candidate = name
		}
	}
	if candidate == "" {
		candidate = filepath.Base(parsed.Path)
	}
	filename := sanitizeFilename(candidate)

	header := make([]byte, sniffLen)
	n, rerr := io.ReadFull(resp.Body, header)
	if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return "", nil, fmt.Errorf("failed to sniff response: %w", rerr)
	}
	header = header[:n]
	body := io.MultiReader(bytes.NewReader(header), resp.Body)

	if filepath.Ext(filename) == "" {
		if kind, _ := filetype.Match(header); kind != filetype.Unknown && kind.Extension != "" {
			filename = filename + "." + kind.Extension
		}
	}
	if filename == "" || filename == "." || filename == "/" {
		filename = "artifact.bin"
	}
	return filename, body, nil
}

var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

var unsafeChars = strings.NewReplacer(
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// sanitizeFilename strips path components and characters that are
// invalid on at least one supported platform.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." {
		return name
	}
	if name == "/" {
		return "_"
	}
	name = strings.TrimSpace(name)
	name = ansiEscapes.ReplaceAllString(name, "")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return unsafeChars.Replace(name)
}
