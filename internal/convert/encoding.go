package convert

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textEncoding maps an encoding name to its x/text encoding. The empty name
// is UTF-8 with an optional byte order mark.
func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "shift-jis", "sjis", "cp932":
		return japanese.ShiftJIS, nil
	}
	return nil, fmt.Errorf("convert: unknown text encoding %q", name)
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d decodedFile) Close() error { return d.f.Close() }

// openText opens path and decodes its bytes to UTF-8.
func openText(path, enc string) (io.ReadCloser, error) {
	e, err := textEncoding(enc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("convert: open %s: %w", path, err)
	}
	return decodedFile{Reader: transform.NewReader(f, e.NewDecoder()), f: f}, nil
}
