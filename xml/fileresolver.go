package xml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"
)

// FileResolver resolves SYSTEM entity references against sibling files
// of a base directory. It implements ExternalEntityResolver (reader.go);
// the parser never calls it automatically, so wiring one in is always
// an explicit, opt-in caller action.
type FileResolver struct {
	BaseDir string
}

// ResolveExternal reads systemID as a path relative to r.BaseDir. PUBLIC
// identifiers are accepted but ignored, since this resolver has no
// catalog to map them through.
func (fr *FileResolver) ResolveExternal(name, systemID, publicID string) ([]byte, error) {
	if systemID == "" {
		return nil, fmt.Errorf("xml: entity %q has no SYSTEM identifier to resolve", name)
	}
	path := systemID
	if !filepath.IsAbs(path) {
		path = filepath.Join(fr.BaseDir, systemID)
	}
	return os.ReadFile(path)
}

// SniffEncoding peeks at the leading bytes of an XML stream and reports
// the detected encoding label. Only a byte order mark decides: a UTF-8
// BOM (which the ByteSource implementations consume silently) and input
// without a BOM are reported as "utf-8", while a UTF-16 BOM surfaces
// here as KindInvalidEncoding so a caller can reject or transcode before
// constructing a Reader. The XML declaration's encoding pseudo-attribute
// is not examined. It returns rest, a Reader
// that replays the peeked bytes followed by whatever remains of r, so a
// caller that accepts the detected encoding can still read the whole
// stream. This package never transcodes, it only detects.
func SniffEncoding(r io.Reader) (label string, rest io.Reader, err error) {
	peek := make([]byte, 1024)
	n, readErr := io.ReadFull(r, peek)
	peek = peek[:n]
	rest = io.MultiReader(bytes.NewReader(peek), r)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return "", rest, readErr
	}

	_, name, certain := charset.DetermineEncoding(peek, "")
	if certain && name != "utf-8" {
		return name, rest, newError(KindInvalidEncoding, Position{Line: 1, Col: 1}, "non-UTF-8 encoding %q detected; this parser only accepts UTF-8", name)
	}
	return "utf-8", rest, nil
}
