package core

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewSanitizingReader wraps r so that a leading UTF-8 byte order mark is
// dropped and invalid UTF-8 sequences come out as U+FFFD. Files exported
// from Windows tools commonly carry both.
func NewSanitizingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
}
