package feedclient

import (
	"encoding/json"
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// PostView is the locally displayed like state of a post.
type PostView struct {
	ID          uint
	Liked       bool
	LikeCount   int
	RepostCount int
	ReplyCount  int
}

// Store holds the client's view of posts. Clicks patch it optimistically,
// refetches replace it and realtime events update the counters.
type Store struct {
	views cmap.ConcurrentMap[uint, PostView]
}

func NewStore() *Store {
	return &Store{
		views: cmap.NewWithCustomShardingFunction[uint, PostView](func(id uint) uint32 {
			return uint32(id)
		}),
	}
}

func viewOf(p Post) PostView {
	return PostView{
		ID:          p.ID,
		Liked:       p.IsLiked,
		LikeCount:   p.LikeCount,
		RepostCount: p.RepostCount,
		ReplyCount:  p.ReplyCount,
	}
}

// Replace stores the server's version of posts, dropping local edits.
func (s *Store) Replace(posts []Post) {
	for _, p := range posts {
		s.views.Set(p.ID, viewOf(p))
	}
}

func (s *Store) Get(id uint) (PostView, bool) {
	return s.views.Get(id)
}

func (s *Store) Set(view PostView) {
	s.views.Set(view.ID, view)
}

func (s *Store) Remove(id uint) {
	s.views.Remove(id)
}

func (s *Store) Len() int {
	return s.views.Count()
}

// toggle flips the liked flag and adjusts the count. It reports the view
// before and after the flip; unknown ids are left absent.
func (s *Store) toggle(id uint) (before, after PostView, ok bool) {
	if _, known := s.views.Get(id); !known {
		return before, after, false
	}
	s.views.Upsert(id, PostView{}, func(exist bool, current PostView, _ PostView) PostView {
		if !exist {
			// Removed since the lookup; the flip has nothing to apply to.
			return current
		}
		ok = true
		before = current
		after = current
		after.Liked = !current.Liked
		if after.Liked {
			after.LikeCount++
		} else {
			after.LikeCount--
		}
		return after
	})
	if !ok {
		s.views.RemoveCb(id, func(_ uint, v PostView, exists bool) bool {
			return exists && v == PostView{}
		})
	}
	return before, after, ok
}

// ApplyLikeState overwrites the like fields with the server's answer.
func (s *Store) ApplyLikeState(state LikeState) {
	s.views.Upsert(state.PostID, PostView{}, func(exist bool, current PostView, _ PostView) PostView {
		current.ID = state.PostID
		current.Liked = state.Liked
		current.LikeCount = state.LikeCount
		return current
	})
}

// ApplyEvent patches the store from a realtime event. Unknown event types
// are ignored.
func (s *Store) ApplyEvent(ev Event) error {
	switch ev.Type {
	case EventPostReactionUpdated:
		var counts ReactionCounts
		if err := json.Unmarshal(ev.Payload, &counts); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		if _, ok := s.views.Get(counts.PostID); !ok {
			return nil
		}
		s.views.Upsert(counts.PostID, PostView{}, func(exist bool, current PostView, _ PostView) PostView {
			current.ID = counts.PostID
			current.LikeCount = counts.LikeCount
			current.RepostCount = counts.RepostCount
			current.ReplyCount = counts.ReplyCount
			return current
		})
	case EventPostDeleted:
		var payload struct {
			PostID uint `json:"post_id"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		s.views.Remove(payload.PostID)
	case EventPostCreated:
		var post Post
		if err := json.Unmarshal(ev.Payload, &post); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		// The author's own like state is unknown to other viewers; a new post
		// has none.
		post.IsLiked = false
		s.views.SetIfAbsent(post.ID, viewOf(post))
	}
	return nil
}
