package listeners

import (
	"VoiceShelf/internal/models"
	"VoiceShelf/pkg/sse"
	"VoiceShelf/pkg/util"

	"github.com/spf13/cast"
)

// InitEventListeners forwards collection changes to the owner's open event
// streams so their lists refresh without polling.
func InitEventListeners(sig *util.Signals, hub *sse.Hub) {
	sig.Connect(models.SigCollectionSaved, func(sender any, params ...any) {
		vc, ok := sender.(*models.VoiceCollection)
		if !ok || vc == nil {
			return
		}
		hub.Publish(OwnerTerm(vc.UserID), sse.Event{
			Name: models.SigCollectionSaved,
			Data: map[string]any{
				"id":       vc.ID,
				"title":    vc.Title,
				"status":   vc.Status,
				"audioUrl": vc.AudioURL,
			},
		})
	})

	sig.Connect(models.SigCollectionDeleted, func(sender any, params ...any) {
		ids := make([]string, 0, len(params))
		for _, p := range params {
			ids = append(ids, cast.ToString(p))
		}
		hub.Publish(OwnerTerm(cast.ToUint(sender)), sse.Event{
			Name: models.SigCollectionDeleted,
			Data: map[string]any{"ids": ids},
		})
	})
}
