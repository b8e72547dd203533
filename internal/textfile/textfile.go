// Package textfile classifies files as text or binary and reads text content.
package textfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// sniffLen is how many leading bytes are inspected to classify a file.
const sniffLen = 8000

// ErrRead is wrapped by every error returned from Read.
var ErrRead = errors.New("read error")

var binaryExts = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".o": {}, ".obj": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".webp": {}, ".tiff": {},
	".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".7z": {}, ".xz": {}, ".jar": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".wav": {}, ".flac": {}, ".ogg": {},
	".wasm": {}, ".class": {}, ".pyc": {}, ".pyo": {}, ".whl": {}, ".woff": {}, ".woff2": {}, ".ttf": {},
	".sqlite": {}, ".db": {},
}

// IsText reports whether the file at path looks like UTF-8 text.
// Known binary extensions are rejected without reading. Otherwise the first
// bytes must contain no NUL byte and decode as UTF-8 (a multi-byte sequence
// cut at the sniff boundary is tolerated). Unreadable files are not text.
func IsText(path string) bool {
	if _, ok := binaryExts[strings.ToLower(filepath.Ext(path))]; ok {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return looksLikeText(buf[:n], n == sniffLen)
}

func looksLikeText(b []byte, truncated bool) bool {
	if bytes.IndexByte(b, 0) >= 0 {
		return false
	}
	if truncated {
		// Drop a trailing partial rune before validating.
		for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
			if utf8.Valid(b) {
				return true
			}
			b = b[:len(b)-1]
		}
	}
	return utf8.Valid(b)
}

// Read returns the file's content as a string. Invalid UTF-8 past the
// sniffed prefix is replaced with U+FFFD. Errors wrap ErrRead.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
