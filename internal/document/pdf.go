package document

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource is the part of a PDF reader the text join needs.
type pageSource interface {
	NumPage() int
	// PageRows returns the text rows of page i (1-based), top to bottom.
	PageRows(i int) ([]string, error)
}

type pdfDocument struct{}

func (pdfDocument) Extract(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return joinPages(ledongthucPages{r})
}

// joinPages joins the rows of each page with single spaces and ends every
// page with a newline, first page to last.
func joinPages(src pageSource) (string, error) {
	var sb strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		rows, err := src.PageRows(i)
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.Join(rows, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

type ledongthucPages struct {
	r *pdf.Reader
}

func (p ledongthucPages) NumPage() int { return p.r.NumPage() }

func (p ledongthucPages) PageRows(i int) ([]string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		// one fragment per show-text operator; Td yields empty ones
		parts := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			if t.S != "" {
				parts = append(parts, t.S)
			}
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out, nil
}
