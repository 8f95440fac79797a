package botnoi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// BaseURL is the Botnoi Voice API base URL.
	BaseURL = "https://api-voice.botnoi.ai"

	// DefaultTimeout bounds a single synthesis call.
	DefaultTimeout = 60 * time.Second

	generatePath  = "/openapi/v1/generate_audio"
	tokenHeader   = "Botnoi-Token"
	maxErrorBody  = 64 << 10
	maxResultBody = 1 << 20
)

// Request is one synthesis call. Token is sent as a header, never in the body.
type Request struct {
	Text      string
	Speaker   string
	Volume    string
	Speed     float64
	TypeMedia string
	Language  string
	Token     string
}

type payload struct {
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker"`
	Volume    string  `json:"volume"`
	Speed     float64 `json:"speed"`
	TypeMedia string  `json:"type_media"`
	SaveFile  string  `json:"save_file"`
	Language  string  `json:"language"`
}

// Result is the provider's answer.
type Result struct {
	AudioURL string
}

// Client wraps HTTP calls to the Botnoi Voice API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewClient builds a client. Empty baseURL and zero timeout take the defaults;
// a nil logger discards output.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// Synthesize sends exactly one generate_audio request. There are no retries.
func (c *Client) Synthesize(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(payload{
		Text:      req.Text,
		Speaker:   req.Speaker,
		Volume:    req.Volume,
		Speed:     req.Speed,
		TypeMedia: req.TypeMedia,
		SaveFile:  "true",
		Language:  req.Language,
	})
	if err != nil {
		return Result{}, fmt.Errorf("botnoi: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("botnoi: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(tokenHeader, req.Token)

	log := c.logger.WithFields(logrus.Fields{
		"speaker":  req.Speaker,
		"language": req.Language,
		"chars":    len([]rune(req.Text)),
	})
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			log.WithError(err).Warn("botnoi request timed out")
			return Result{}, &TimeoutError{After: c.timeout, Err: err}
		}
		log.WithError(err).Error("botnoi request failed")
		return Result{}, fmt.Errorf("botnoi: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WithField("status", resp.StatusCode).Warn("botnoi returned an error")
		return Result{}, &RemoteError{Status: resp.StatusCode, Body: string(errBody)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBody))
	if err != nil {
		if isTimeout(err) {
			return Result{}, &TimeoutError{After: c.timeout, Err: err}
		}
		return Result{}, &MalformedResponseError{Err: err}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, &MalformedResponseError{Body: string(raw), Err: err}
	}
	audioURL, _ := decoded["audio_url"].(string)
	if strings.TrimSpace(audioURL) == "" {
		return Result{}, &MalformedResponseError{Body: string(raw)}
	}

	log.WithField("elapsed", time.Since(start)).Debug("botnoi audio generated")
	return Result{AudioURL: audioURL}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
