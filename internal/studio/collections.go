package studio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"VoiceShelf/internal/listeners"
	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/search"

	"github.com/spf13/cast"
)

var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func checkSaveInput(meta SaveInput) error {
	if strings.TrimSpace(meta.Title) == "" {
		return models.ErrTitleRequired
	}
	return models.CheckCategory(meta.Category)
}

func (s *Studio) create(ctx context.Context, owner uint, in models.CollectionInput) (*models.VoiceCollection, error) {
	vc, err := models.CreateCollection(s.db.WithContext(ctx), owner, in)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCollectionOperation("create")
	s.signals.Emit(models.SigCollectionSaved, vc)
	return vc, nil
}

// Save stores a record without generating speech. in.AudioURL may carry a
// URL from an earlier Generate call.
func (s *Studio) Save(ctx context.Context, sess Session, in models.CollectionInput) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	return s.create(ctx, owner, in)
}

func (s *Studio) Get(ctx context.Context, sess Session, id string) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	return models.GetCollection(s.db.WithContext(ctx), owner, id)
}

func (s *Studio) List(ctx context.Context, sess Session, q models.CollectionQuery) ([]models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	return models.ListCollections(s.db.WithContext(ctx), owner, q)
}

func (s *Studio) UpdateDetails(ctx context.Context, sess Session, id string, d models.CollectionDetails) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	vc, err := models.UpdateCollectionDetails(s.db.WithContext(ctx), owner, id, d)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCollectionOperation("update")
	s.signals.Emit(models.SigCollectionSaved, vc)
	return vc, nil
}

func (s *Studio) Delete(ctx context.Context, sess Session, id string) error {
	owner, err := sess.owner()
	if err != nil {
		return err
	}
	if err := models.DeleteCollection(s.db.WithContext(ctx), owner, id); err != nil {
		return err
	}
	s.metrics.RecordCollectionOperation("delete")
	s.signals.Emit(models.SigCollectionDeleted, owner, id)
	return nil
}

// DeleteMany removes all of ids or none; see models.DeleteCollections.
func (s *Studio) DeleteMany(ctx context.Context, sess Session, ids []string) (int, error) {
	owner, err := sess.owner()
	if err != nil {
		return 0, err
	}
	n, err := models.DeleteCollections(s.db.WithContext(ctx), owner, ids)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordCollectionOperation("bulk_delete")
	params := make([]any, 0, len(ids))
	for _, id := range ids {
		params = append(params, id)
	}
	s.signals.Emit(models.SigCollectionDeleted, owner, params...)
	return n, nil
}

// Search ranks the user's collections by keyword. Without an index it falls
// back to the substring filter of List.
func (s *Studio) Search(ctx context.Context, sess Session, keyword string, from, size int) ([]models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	if s.search == nil {
		return models.ListCollections(s.db.WithContext(ctx), owner, models.CollectionQuery{Search: keyword})
	}
	res, err := s.search.Search(ctx, search.SearchRequest{
		Keyword:   keyword,
		MustTerms: map[string][]string{"user_id": {listeners.OwnerTerm(owner)}},
		From:      from,
		Size:      size,
	})
	if err != nil {
		return nil, fmt.Errorf("search collections: %w", err)
	}
	return models.GetCollectionsByIDs(s.db.WithContext(ctx), owner, res.IDs())
}

// SetCover uploads an image and points the record's cover at it.
func (s *Studio) SetCover(ctx context.Context, sess Session, id, contentType string, r io.Reader, size int64) (*models.VoiceCollection, error) {
	owner, err := sess.owner()
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	ext, ok := coverExtensions[strings.ToLower(mediaType)]
	if !ok {
		return nil, ErrUnsupportedImage
	}
	if _, err := models.GetCollection(s.db.WithContext(ctx), owner, id); err != nil {
		return nil, err
	}

	key := path.Join("covers", cast.ToString(owner), id+ext)
	if err := s.store.Write(ctx, key, r, size, mediaType); err != nil {
		return nil, fmt.Errorf("store cover: %w", err)
	}
	url := s.store.PublicURL(key)
	return s.UpdateDetails(ctx, sess, id, models.CollectionDetails{CoverImageURL: &url})
}
