package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/haulbid/bidboard-backend/api/responses"
	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/logger"
)

var feedEntities = map[string]changefeed.Entity{
	"auction":      changefeed.EntityAuction,
	"bid":          changefeed.EntityBid,
	"award":        changefeed.EntityAward,
	"notification": changefeed.EntityNotification,
}

// ChangeFeedStream pushes feed events to the client as Server-Sent
// Events. The entities query param narrows the stream; omitting it
// subscribes to everything.
func ChangeFeedStream(feed *changefeed.Feed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		entities, err := parseFeedEntities(r.URL.Query().Get("entities"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub := feed.Subscribe(entities...)
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-sub.Events():
				if !open {
					return
				}
				raw, err := json.Marshal(event)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Entity, raw)
				flusher.Flush()
			}
		}
	}
}

func parseFeedEntities(raw string) ([]changefeed.Entity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var entities []changefeed.Entity
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entity, ok := feedEntities[part]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown feed entity").
				WithDetails(map[string]any{"entity": part})
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
