package speech

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyText         = errors.New("text is empty")
	ErrMissingCredential = errors.New("provider credential is missing")
	ErrInvalidParameter  = errors.New("invalid voice parameter")
)

var (
	minSpeed = decimal.RequireFromString("0.5")
	maxSpeed = decimal.RequireFromString("3.0")
)

// ValidationError names the offending field and unwraps to one of the
// sentinel errors above.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Request is a validated synthesis request.
type Request struct {
	Text         string
	Voice        VoiceParameters
	OutputFormat string
	Credential   string
}

// Build validates in a fixed order and returns the first failure:
// empty text, then missing credential, then speed out of [0.5, 3.0].
func Build(text string, voice VoiceParameters, format, credential string) (Request, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Request{}, &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if strings.TrimSpace(credential) == "" {
		return Request{}, &ValidationError{Field: "credential", Err: ErrMissingCredential}
	}
	if err := CheckSpeed(voice.Speed); err != nil {
		return Request{}, err
	}

	return Request{
		Text:         trimmed,
		Voice:        voice,
		OutputFormat: format,
		Credential:   credential,
	}, nil
}

// CheckSpeed rejects speeds outside [0.5, 3.0] with a ValidationError.
func CheckSpeed(speed float64) error {
	if speedInRange(speed) {
		return nil
	}
	return &ValidationError{
		Field: "speed",
		Err:   fmt.Errorf("%w: speed %v outside [%s, %s]", ErrInvalidParameter, speed, minSpeed, maxSpeed),
	}
}

func speedInRange(speed float64) bool {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return false
	}
	d := decimal.NewFromFloat(speed)
	return d.GreaterThanOrEqual(minSpeed) && d.LessThanOrEqual(maxSpeed)
}
