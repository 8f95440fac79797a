package speech

import (
	"context"
	"errors"

	"VoiceShelf/pkg/botnoi"
	"VoiceShelf/pkg/metrics"
)

// Synthesizer turns a validated request into a playable audio URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (string, error)
}

// RemoteSynthesizer sends requests to Botnoi.
type RemoteSynthesizer struct {
	client  *botnoi.Client
	metrics *metrics.Metrics
}

func NewRemoteSynthesizer(client *botnoi.Client, m *metrics.Metrics) *RemoteSynthesizer {
	return &RemoteSynthesizer{client: client, metrics: m}
}

func (s *RemoteSynthesizer) Synthesize(ctx context.Context, req Request) (string, error) {
	done := s.metrics.SynthesisStarted()
	res, err := s.client.Synthesize(ctx, botnoi.Request{
		Text:      req.Text,
		Speaker:   req.Voice.Speaker,
		Volume:    req.Voice.Volume,
		Speed:     req.Voice.Speed,
		TypeMedia: req.OutputFormat,
		Language:  req.Voice.Language,
		Token:     req.Credential,
	})
	done(outcome(err))
	if err != nil {
		return "", err
	}
	return res.AudioURL, nil
}

func outcome(err error) string {
	var (
		remote    *botnoi.RemoteError
		malformed *botnoi.MalformedResponseError
		timeout   *botnoi.TimeoutError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &timeout):
		return "timeout"
	default:
		return "transport_error"
	}
}
