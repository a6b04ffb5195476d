package server

import (
	"context"
	"log/slog"

	"leconn/internal/models"
	"leconn/internal/notifications"
	"leconn/internal/observability"
)

// publishBroadcastEvent delivers an event to every websocket client. With
// Redis the event goes through pub/sub so all instances see it exactly once;
// without Redis only this instance's hub is reached.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload interface{}) {
	message, err := notifications.Encode(eventType, payload)
	if err != nil {
		observability.LogBackground(ctx, "encode_event", err, slog.String("event", eventType))
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()

	if s.redis == nil {
		s.hub.BroadcastAll(message)
		return
	}
	if err := s.notifier.PublishBroadcast(ctx, message); err != nil {
		observability.LogBackground(ctx, "publish_event", err, slog.String("event", eventType))
		s.hub.BroadcastAll(message)
	}
}

// publishReactionUpdate broadcasts the counters of postID after a like or
// repost changed them.
func (s *Server) publishReactionUpdate(ctx context.Context, postID uint) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			observability.LogBackground(ctx, "load_reaction_counters", err, slog.Uint64("post_id", uint64(postID)))
		}
		return
	}
	s.publishBroadcastEvent(ctx, notifications.EventPostReactionUpdated, notifications.PostReactionPayload{
		PostID:      post.ID,
		LikeCount:   post.LikeCount,
		RepostCount: post.RepostCount,
		ReplyCount:  post.ReplyCount,
	})
}
