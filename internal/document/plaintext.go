package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// plainText decodes text files. Content is returned as is, apart from a
// leading UTF-8 byte order mark.
type plainText struct {
	charset string
}

func (p plainText) Extract(data []byte) (string, error) {
	cs := strings.ToLower(strings.TrimSpace(p.charset))
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		data = bytes.TrimPrefix(data, utf8BOM)
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}

	enc, err := htmlindex.Get(cs)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", p.charset, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", cs, err)
	}
	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}
