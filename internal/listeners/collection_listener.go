package listeners

import (
	"context"
	"time"

	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/search"
	"VoiceShelf/pkg/util"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const indexTimeout = 5 * time.Second

// OwnerTerm is the user_id value stored with every indexed collection.
func OwnerTerm(owner uint) string {
	return cast.ToString(owner)
}

// CollectionDoc maps a record onto the collection index mapping.
func CollectionDoc(vc *models.VoiceCollection) search.Doc {
	fields := map[string]any{
		"title":      vc.Title,
		"text":       vc.OriginalText,
		"category":   vc.Category,
		"user_id":    OwnerTerm(vc.UserID),
		"created_at": vc.CreatedAt,
	}
	if vc.BookSeries != nil {
		fields["series"] = *vc.BookSeries
	}
	return search.Doc{ID: vc.ID, Type: search.CollectionType, Fields: fields}
}

// InitCollectionListeners keeps engine in step with saved and deleted
// collections. Index failures are logged; the database stays authoritative.
func InitCollectionListeners(sig *util.Signals, engine search.Engine) {
	sig.Connect(models.SigCollectionSaved, func(sender any, params ...any) {
		vc, ok := sender.(*models.VoiceCollection)
		if !ok || vc == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := engine.Index(ctx, CollectionDoc(vc)); err != nil {
			logger.Warn("index collection failed", zap.String("id", vc.ID), zap.Error(err))
		}
	})

	sig.Connect(models.SigCollectionDeleted, func(sender any, params ...any) {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		for _, p := range params {
			id := cast.ToString(p)
			if id == "" {
				continue
			}
			if err := engine.Delete(ctx, id); err != nil {
				logger.Warn("unindex collection failed", zap.String("id", id), zap.Error(err))
			}
		}
	})
}

// ReindexCollections loads every stored collection into engine. It is run at
// startup so an in-memory index starts populated.
func ReindexCollections(ctx context.Context, db *gorm.DB, engine search.Engine) (int, error) {
	var (
		rows  []models.VoiceCollection
		total int
	)
	res := db.WithContext(ctx).Model(&models.VoiceCollection{}).FindInBatches(&rows, 500, func(tx *gorm.DB, batch int) error {
		docs := make([]search.Doc, 0, len(rows))
		for i := range rows {
			docs = append(docs, CollectionDoc(&rows[i]))
		}
		if err := engine.IndexBatch(ctx, docs); err != nil {
			return err
		}
		total += len(docs)
		return nil
	})
	if res.Error != nil {
		return total, res.Error
	}
	logger.Info("collections indexed", zap.Int("count", total))
	return total, nil
}
