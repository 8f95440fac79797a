package handlers

import (
	"io"
	"net/http"

	"VoiceShelf/internal/document"
	"VoiceShelf/internal/speech"
	"VoiceShelf/internal/studio"
	"VoiceShelf/pkg/config"
	"VoiceShelf/pkg/response"

	"github.com/gin-gonic/gin"
)

// voiceForm carries the sound settings shared by every generation endpoint.
type voiceForm struct {
	Speaker  string  `json:"speaker"`
	Volume   string  `json:"volume"`
	Speed    *float64 `json:"speed"`
	Language string   `json:"language"`
	Format   string   `json:"format"`
}

// newVoice is the base for new text: defaults, with the user's preferred
// language.
func newVoice(sess studio.Session) speech.VoiceParameters {
	v := speech.DefaultVoice()
	if sess.Preferences != nil && sess.Preferences.DefaultLanguage != "" {
		v.Language = sess.Preferences.DefaultLanguage
	}
	return v
}

// parse fills the fields the client left out from base.
func (f voiceForm) parse(base speech.VoiceParameters) (speech.VoiceParameters, string, error) {
	v, err := speech.ParseVoice(base, f.Speaker, f.Volume, f.Speed, f.Language)
	if err != nil {
		return speech.VoiceParameters{}, "", err
	}
	format, err := speech.ParseOutputFormat(f.Format)
	if err != nil {
		return speech.VoiceParameters{}, "", err
	}
	return v, format, nil
}

type generateForm struct {
	voiceForm
	Text string `json:"text"`

	// Save stores the result as a collection.
	Save          bool   `json:"save"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	BookSeries    string `json:"bookSeries"`
	CoverImageURL string `json:"coverImageUrl"`
}

func (h *Handlers) handleExtract(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.failKey(c, http.StatusBadRequest, "file_missing", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	// one byte over the limit is enough for the pipeline to reject it
	limit := config.GlobalConfig.UploadMaxBytes
	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.studio.Extract(c.Request.Context(), h.session(c), document.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := h.t(c, "file_extracted", map[string]interface{}{"Count": res.Chars, "Name": fh.Filename})
	response.Success(c, msg, gin.H{
		"text":   res.Text,
		"title":  res.Title,
		"format": res.Format.String(),
		"chars":  res.Chars,
	})
}

func (h *Handlers) handleGenerate(c *gin.Context) {
	var form generateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	sess := h.session(c)
	voice, format, err := form.parse(newVoice(sess))
	if err != nil {
		h.fail(c, err)
		return
	}
	in := studio.GenerateInput{Text: form.Text, Voice: voice, Format: format}

	if !form.Save {
		audioURL, err := h.studio.Generate(c.Request.Context(), sess, in)
		if err != nil {
			h.fail(c, err)
			return
		}
		response.Success(c, h.t(c, "speech_generated", nil), gin.H{"audioUrl": audioURL, "voice": voice})
		return
	}

	vc, err := h.studio.GenerateAndSave(c.Request.Context(), sess, in, studio.SaveInput{
		Title:         form.Title,
		Category:      form.Category,
		BookSeries:    form.BookSeries,
		CoverImageURL: form.CoverImageURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, h.t(c, "speech_generated_saved", nil), vc)
}
