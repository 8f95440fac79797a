package document

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format is the kind of document an upload holds.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPlainText
	FormatPDF
	FormatDocx
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "txt"
	case FormatPDF:
		return "pdf"
	case FormatDocx:
		return "docx"
	default:
		return "unsupported"
	}
}

// Detect classifies an upload. The declared MIME type wins; the filename
// extension is only consulted when the type is missing or generic.
func Detect(contentType, filename string) Format {
	mt, _ := parseContentType(contentType)
	switch mt {
	case "text/plain":
		return FormatPlainText
	case "application/pdf":
		return FormatPDF
	case docxMIME:
		return FormatDocx
	case "", "application/octet-stream", "binary/octet-stream", "application/zip", "application/x-zip-compressed":
		return detectByExtension(filename)
	default:
		return FormatUnsupported
	}
}

func detectByExtension(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatPlainText
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDocx
	default:
		return FormatUnsupported
	}
}

// parseContentType returns the lower-cased media type and its charset
// parameter, if any. Unparseable values fall back to the part before ';'.
func parseContentType(contentType string) (mediaType, charset string) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt)), ""
	}
	return mt, params["charset"]
}

// TitleFromFilename drops the last extension: "Chapter 1.docx" -> "Chapter 1".
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
