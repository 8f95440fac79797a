package handlers

import (
	"net/http"
	"strings"

	"VoiceShelf/internal/listeners"
	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type collectionForm struct {
	voiceForm
	Title         string `json:"title"`
	Text          string `json:"text"`
	AudioURL      string `json:"audioUrl"`
	Category      string `json:"category"`
	BookSeries    string `json:"bookSeries"`
	CoverImageURL string `json:"coverImageUrl"`
}

type bulkDeleteForm struct {
	IDs []string `json:"ids"`
}

func (h *Handlers) handleListCollections(c *gin.Context) {
	var q models.CollectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	rows, err := h.studio.List(c.Request.Context(), h.session(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{
		"items":      rows,
		"total":      len(rows),
		"series":     models.SeriesNames(rows),
		"categories": models.Categories,
	}
	if c.Query("group") == "series" {
		data["groups"] = models.GroupBySeries(rows)
	}
	response.Success(c, h.t(c, "ok", nil), data)
}

func (h *Handlers) handleCreateCollection(c *gin.Context) {
	var form collectionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	sess := h.session(c)
	voice, _, err := form.parse(newVoice(sess))
	if err != nil {
		h.fail(c, err)
		return
	}
	vc, err := h.studio.Save(c.Request.Context(), sess, models.CollectionInput{
		Title:         form.Title,
		Text:          form.Text,
		AudioURL:      form.AudioURL,
		Voice:         voice,
		Category:      form.Category,
		BookSeries:    form.BookSeries,
		CoverImageURL: form.CoverImageURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	key := "collection_saved_no_audio"
	if vc.Generated {
		key = "collection_saved_audio"
	}
	response.Created(c, h.t(c, key, nil), vc)
}

func (h *Handlers) handleGetCollection(c *gin.Context) {
	vc, err := h.studio.Get(c.Request.Context(), h.session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "ok", nil), vc)
}

func (h *Handlers) handleUpdateCollection(c *gin.Context) {
	var d models.CollectionDetails
	if err := c.ShouldBindJSON(&d); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	vc, err := h.studio.UpdateDetails(c.Request.Context(), h.session(c), c.Param("id"), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "collection_updated", nil), vc)
}

func (h *Handlers) handleRegenerate(c *gin.Context) {
	var form voiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	sess := h.session(c)
	rec, err := h.studio.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	voice, format, err := form.parse(rec.Voice())
	if err != nil {
		h.fail(c, err)
		return
	}
	vc, err := h.studio.Regenerate(c.Request.Context(), sess, c.Param("id"), voice, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "speech_generated", nil), vc)
}

func (h *Handlers) handleDeleteCollection(c *gin.Context) {
	if err := h.studio.Delete(c.Request.Context(), h.session(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "collection_deleted", nil), nil)
}

func (h *Handlers) handleBulkDelete(c *gin.Context) {
	var form bulkDeleteForm
	if err := c.ShouldBindJSON(&form); err != nil || len(form.IDs) == 0 {
		h.failKey(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	n, err := h.studio.DeleteMany(c.Request.Context(), h.session(c), form.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "collections_deleted", map[string]interface{}{"Count": n}), gin.H{"deleted": n})
}

func (h *Handlers) handleUploadCover(c *gin.Context) {
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

	vc, err := h.studio.SetCover(c.Request.Context(), h.session(c), c.Param("id"),
		fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, h.t(c, "cover_uploaded", nil), vc)
}

func (h *Handlers) handleSearchCollections(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.failKey(c, http.StatusBadRequest, "invalid_parameter", map[string]interface{}{"Field": "q"})
		return
	}
	from := cast.ToInt(c.DefaultQuery("from", "0"))
	size := cast.ToInt(c.DefaultQuery("size", "20"))

	rows, err := h.studio.Search(c.Request.Context(), h.session(c), q, from, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	key := "ok"
	if !h.studio.SearchEnabled() {
		key = "search_disabled"
	}
	response.Success(c, h.t(c, key, nil), gin.H{"items": rows, "total": len(rows)})
}

// handleCollectionEvents streams the user's collection changes.
func (h *Handlers) handleCollectionEvents(c *gin.Context) {
	h.events.Serve(c, listeners.OwnerTerm(models.CurrentUser(c).ID))
}
