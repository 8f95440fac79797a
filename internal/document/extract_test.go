package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	p, err := NewPipeline(opts)
	require.NoError(t, err)
	return p
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	if body != "" {
		w, err = zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainTextExact(t *testing.T) {
	p := newPipeline(t, Options{})

	res, err := p.Extract(Upload{Filename: "hello.txt", ContentType: "text/plain", Data: []byte("Hello world")})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 11, res.Chars)
	assert.Equal(t, "hello", res.Title)
	assert.Equal(t, FormatPlainText, res.Format)
}

func TestExtractPlainTextKeepsWhitespace(t *testing.T) {
	p := newPipeline(t, Options{})
	res, err := p.Extract(Upload{Filename: "a.txt", Data: []byte("\xEF\xBB\xBF  line one\r\n\tline two\n")})
	require.NoError(t, err)
	assert.Equal(t, "  line one\r\n\tline two\n", res.Text)
}

func TestExtractPlainTextCharset(t *testing.T) {
	p := newPipeline(t, Options{})
	// "สวัสดี" in TIS-620 / windows-874
	data := []byte{0xCA, 0xC7, 0xD1, 0xCA, 0xB4, 0xD5}
	res, err := p.Extract(Upload{Filename: "th.txt", ContentType: "text/plain; charset=windows-874", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "สวัสดี", res.Text)
	assert.Equal(t, 6, res.Chars)

	_, err = p.Extract(Upload{Filename: "x.txt", ContentType: "text/plain; charset=klingon", Data: data})
	var ee *ExtractionError
	assert.True(t, errors.As(err, &ee))
}

func TestExtractDocx(t *testing.T) {
	p := newPipeline(t, Options{})
	doc := buildDocx(t,
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>`+
			`<w:r><w:t>Once upon</w:t></w:r><w:r><w:t xml:space="preserve"> a time</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t><w:br/><w:t>next line</w:t></w:r></w:p>`+
			`<w:p/>`)

	res, err := p.Extract(Upload{Filename: "story.docx", ContentType: docxMIME, Data: doc})
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time\n\nName\tValue\nnext line\n\n\n\n", res.Text)

	// deterministic
	again, err := p.Extract(Upload{Filename: "story.docx", ContentType: docxMIME, Data: doc})
	require.NoError(t, err)
	assert.Equal(t, res.Text, again.Text)
}

func TestExtractDocxFailures(t *testing.T) {
	p := newPipeline(t, Options{})

	_, err := p.Extract(Upload{Filename: "empty.docx", Data: buildDocx(t, "")})
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, FormatDocx, ee.Format)
	assert.ErrorIs(t, err, errNoDocumentPart)

	_, err = p.Extract(Upload{Filename: "broken.docx", Data: []byte("PK\x03\x04 not really")})
	assert.True(t, errors.As(err, &ee))

	full := buildDocx(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)
	_, err = p.Extract(Upload{Filename: "cut.docx", Data: full[:len(full)/2]})
	assert.True(t, errors.As(err, &ee))
}

// buildPDF writes a minimal PDF with one Helvetica content stream per page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	n := len(pages)
	fontID := 3 + 2*n
	var objs []string
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
	)
	for i, content := range pages {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFSeparatesFragments(t *testing.T) {
	p := newPipeline(t, Options{})
	data := buildPDF(t,
		"BT /F1 12 Tf (Hello) Tj 100 0 Td (world) Tj ET",
		"BT /F1 12 Tf (Second) Tj 0 -20 Td (line) Tj ET",
	)
	res, err := p.Extract(Upload{Filename: "book.pdf", ContentType: "application/pdf", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond line\n", res.Text)
	assert.Equal(t, FormatPDF, res.Format)
}

func TestExtractCorruptPDF(t *testing.T) {
	p := newPipeline(t, Options{})
	_, err := p.Extract(Upload{Filename: "bad.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 garbage")})
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, FormatPDF, ee.Format)
}

type fakePages [][]string

func (f fakePages) NumPage() int { return len(f) }
func (f fakePages) PageRows(i int) ([]string, error) {
	return f[i-1], nil
}

func TestJoinPages(t *testing.T) {
	text, err := joinPages(fakePages{{"Chapter 1", "It was dark."}, {}, {"The end"}})
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1 It was dark.\n\nThe end\n", text)
}

func TestExtractUnsupported(t *testing.T) {
	p := newPipeline(t, Options{})
	for _, u := range []Upload{
		{Filename: "a.doc", ContentType: "application/msword", Data: []byte("x")},
		{Filename: "a.png", Data: []byte("x")},
		{Filename: "", Data: nil},
	} {
		_, err := p.Extract(u)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, u.Filename)
	}
}

func TestExtractTooLarge(t *testing.T) {
	p := newPipeline(t, Options{MaxBytes: 4})
	_, err := p.Extract(Upload{Filename: "a.txt", Data: []byte("12345")})
	assert.ErrorIs(t, err, ErrTooLarge)
}

type countingExtractor struct {
	calls int
	text  string
	panic bool
}

func (c *countingExtractor) Extract([]byte) (string, error) {
	c.calls++
	if c.panic {
		panic("bad xref")
	}
	return c.text, nil
}

func TestExtractMemoisesByContent(t *testing.T) {
	p := newPipeline(t, Options{CacheSize: 8})
	fake := &countingExtractor{text: "page text\n"}
	p.extractors[FormatPDF] = fake

	for i := 0; i < 3; i++ {
		res, err := p.Extract(Upload{Filename: "a.pdf", Data: []byte("same bytes")})
		require.NoError(t, err)
		assert.Equal(t, "page text\n", res.Text)
	}
	assert.Equal(t, 1, fake.calls)

	_, err := p.Extract(Upload{Filename: "b.pdf", Data: []byte("other bytes")})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestExtractRecoversPanic(t *testing.T) {
	p := newPipeline(t, Options{})
	p.extractors[FormatPDF] = &countingExtractor{panic: true}

	_, err := p.Extract(Upload{Filename: "a.pdf", Data: []byte("x")})
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, err.Error(), "bad xref")
}

func TestExtractAsync(t *testing.T) {
	p := newPipeline(t, Options{})

	res := <-p.ExtractAsync(context.Background(), Upload{Filename: "a.txt", Data: []byte("Hello world")})
	require.NoError(t, res.Err)
	assert.Equal(t, "Hello world", res.Text)

	res = <-p.ExtractAsync(context.Background(), Upload{Filename: "a.exe", Data: []byte("MZ")})
	assert.ErrorIs(t, res.Err, ErrUnsupportedFormat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := p.ExtractAsync(ctx, Upload{Filename: "a.txt", Data: []byte("x")})
	res = <-ch
	assert.ErrorIs(t, res.Err, context.Canceled)
	_, open := <-ch
	assert.False(t, open)
}
