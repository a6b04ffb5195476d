package feedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_StreamsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	gotTicket := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws/ticket", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ticket":"abc","expires_in":30}`))
	})
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		gotTicket <- r.URL.Query().Get("ticket")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"post_reaction_updated","payload":{"post_id":2,"like_count":9,"repost_count":1,"reply_count":0}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, WithToken("tok"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", <-gotTicket)

	select {
	case ev := <-events:
		assert.Equal(t, EventPostReactionUpdated, ev.Type)
		store := NewStore()
		store.Set(PostView{ID: 2, Liked: true, LikeCount: 1})
		require.NoError(t, store.ApplyEvent(ev))
		view, _ := store.Get(2)
		assert.Equal(t, PostView{ID: 2, Liked: true, LikeCount: 9, RepostCount: 1}, view)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestClient_WSURL(t *testing.T) {
	c := NewClient("https://api.example.com/base/")
	got, err := c.wsURL("t 1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/base/api/ws?ticket=t+1", got)
}

func TestStore_ApplyEvent(t *testing.T) {
	store := NewStore()
	store.Replace([]Post{{ID: 1, LikeCount: 2, IsLiked: true}})

	payload, err := json.Marshal(map[string]interface{}{"post_id": 1, "user_id": 5})
	require.NoError(t, err)
	require.NoError(t, store.ApplyEvent(Event{Type: EventPostDeleted, Payload: payload}))
	_, ok := store.Get(1)
	assert.False(t, ok)

	require.NoError(t, store.ApplyEvent(Event{
		Type:    EventPostCreated,
		Payload: json.RawMessage(`{"id":3,"content":"fresh","like_count":0}`),
	}))
	assert.Equal(t, 1, store.Len())

	// Counters for posts not in the store are ignored.
	require.NoError(t, store.ApplyEvent(Event{
		Type:    EventPostReactionUpdated,
		Payload: json.RawMessage(`{"post_id":77,"like_count":1}`),
	}))
	assert.Equal(t, 1, store.Len())

	assert.Error(t, store.ApplyEvent(Event{Type: EventPostDeleted, Payload: json.RawMessage(`[]`)}))
	assert.NoError(t, store.ApplyEvent(Event{Type: "unknown"}))
}
