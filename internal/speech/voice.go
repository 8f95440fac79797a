package speech

import (
	"fmt"
	"strconv"
	"strings"
)

// Volume gains understood by the provider.
const (
	VolumeLow    = "0.5"
	VolumeNormal = "1"
	VolumeHigh   = "1.5"
)

var volumeTokens = map[string]string{
	"low":        VolumeLow,
	"normal":     VolumeNormal,
	"high":       VolumeHigh,
	VolumeLow:    VolumeLow,
	VolumeNormal: VolumeNormal,
	VolumeHigh:   VolumeHigh,
	"1.0":        VolumeNormal,
}

const (
	MinSpeaker = 1
	MaxSpeaker = 4
)

// VoiceParameters are the user's sound settings. Volume holds the gain
// ("0.5", "1" or "1.5"); Speaker is a small integer as a string.
type VoiceParameters struct {
	Speaker  string  `json:"speaker"`
	Volume   string  `json:"volume"`
	Speed    float64 `json:"speed"`
	Language string  `json:"language"`
}

// DefaultVoice matches the settings a new user starts with.
func DefaultVoice() VoiceParameters {
	return VoiceParameters{Speaker: "1", Volume: VolumeNormal, Speed: 1, Language: "th"}
}

// ParseVolume accepts low/normal/high or the matching gain.
func ParseVolume(s string) (string, error) {
	if v, ok := volumeTokens[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", &ValidationError{Field: "volume", Err: fmt.Errorf("%w: volume %q", ErrInvalidParameter, s)}
}

func ParseSpeaker(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < MinSpeaker || n > MaxSpeaker {
		return "", &ValidationError{Field: "speaker", Err: fmt.Errorf("%w: speaker %q", ErrInvalidParameter, s)}
	}
	return strconv.Itoa(n), nil
}

func ParseLanguage(s string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(s)); l {
	case "th", "en":
		return l, nil
	}
	return "", &ValidationError{Field: "language", Err: fmt.Errorf("%w: language %q", ErrInvalidParameter, s)}
}

func ParseOutputFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "mp3":
		return "mp3", nil
	case "wav":
		return f, nil
	}
	return "", &ValidationError{Field: "type_media", Err: fmt.Errorf("%w: format %q", ErrInvalidParameter, s)}
}

// ParseVoice fills empty fields from base and checks the tokens. A nil
// speed keeps base.Speed; any given speed is kept as is and left to Build.
func ParseVoice(base VoiceParameters, speaker, volume string, speed *float64, language string) (VoiceParameters, error) {
	v := base
	var err error
	if speaker != "" {
		if v.Speaker, err = ParseSpeaker(speaker); err != nil {
			return VoiceParameters{}, err
		}
	}
	if volume != "" {
		if v.Volume, err = ParseVolume(volume); err != nil {
			return VoiceParameters{}, err
		}
	}
	if language != "" {
		if v.Language, err = ParseLanguage(language); err != nil {
			return VoiceParameters{}, err
		}
	}
	if speed != nil {
		v.Speed = *speed
	}
	return v, nil
}
