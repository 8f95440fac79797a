package document

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

// Extractor turns the raw bytes of one format into text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Upload is a user-supplied file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the outcome of one extraction. Err is only used on the
// ExtractAsync channel.
type Result struct {
	Text   string
	Title  string
	Format Format
	Chars  int
	Err    error
}

type Options struct {
	// MaxBytes rejects larger uploads; zero means no limit.
	MaxBytes int64
	// CacheSize is the number of memoised results; zero disables the memo.
	CacheSize int
	Metrics   *metrics.Metrics
}

type memoKey struct {
	format  Format
	charset string
	sum     [32]byte
}

// Pipeline dispatches uploads to the extractor for their format.
type Pipeline struct {
	extractors map[Format]Extractor
	memo       *lru.Cache[memoKey, string]
	maxBytes   int64
	metrics    *metrics.Metrics
}

func NewPipeline(opts Options) (*Pipeline, error) {
	p := &Pipeline{
		extractors: map[Format]Extractor{
			FormatPDF:  pdfDocument{},
			FormatDocx: wordDocument{},
		},
		maxBytes: opts.MaxBytes,
		metrics:  opts.Metrics,
	}
	if opts.CacheSize > 0 {
		memo, err := lru.New[memoKey, string](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		p.memo = memo
	}
	return p, nil
}

func (p *Pipeline) extractorFor(f Format, charset string) Extractor {
	if f == FormatPlainText {
		return plainText{charset: charset}
	}
	return p.extractors[f]
}

// Extract reads the text of u. Every failure is an *ExtractionError.
func (p *Pipeline) Extract(u Upload) (Result, error) {
	format := Detect(u.ContentType, u.Filename)
	res := Result{Format: format, Title: TitleFromFilename(u.Filename)}

	if format == FormatUnsupported {
		p.metrics.RecordExtraction(format.String(), "unsupported", 0)
		return res, &ExtractionError{Format: format, Cause: ErrUnsupportedFormat}
	}
	if p.maxBytes > 0 && int64(len(u.Data)) > p.maxBytes {
		p.metrics.RecordExtraction(format.String(), "too_large", 0)
		return res, &ExtractionError{Format: format, Cause: ErrTooLarge}
	}

	_, charset := parseContentType(u.ContentType)
	key := memoKey{format: format, charset: strings.ToLower(charset), sum: blake3.Sum256(u.Data)}
	if p.memo != nil {
		if text, ok := p.memo.Get(key); ok {
			p.metrics.RecordExtractionCache(true)
			res.Text, res.Chars = text, utf8.RuneCountInString(text)
			return res, nil
		}
		p.metrics.RecordExtractionCache(false)
	}

	start := time.Now()
	text, err := safeExtract(p.extractorFor(format, charset), u.Data)
	if err != nil {
		p.metrics.RecordExtraction(format.String(), "error", time.Since(start))
		logger.Warn("extraction failed",
			zap.String("file", u.Filename),
			zap.Stringer("format", format),
			zap.Error(err))
		return res, &ExtractionError{Format: format, Cause: err}
	}
	p.metrics.RecordExtraction(format.String(), "ok", time.Since(start))

	if p.memo != nil {
		p.memo.Add(key, text)
	}
	res.Text, res.Chars = text, utf8.RuneCountInString(text)
	return res, nil
}

// ExtractAsync runs Extract on its own goroutine. The channel yields exactly
// one Result and is then closed.
func (p *Pipeline) ExtractAsync(ctx context.Context, u Upload) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- Result{Err: err}
			return
		}
		res, err := p.Extract(u)
		res.Err = err
		ch <- res
	}()
	return ch
}

// safeExtract turns a decoder panic into an error.
func safeExtract(ex Extractor, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return ex.Extract(data)
}
