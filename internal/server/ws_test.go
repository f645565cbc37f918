package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/a7medmo7amady/trello/internal/models"
)

func dialWatch(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/v1/board/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial watch: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNotice(t *testing.T, conn *websocket.Conn) ChangeNotice {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var n ChangeNotice
	if err := conn.ReadJSON(&n); err != nil {
		t.Fatalf("read notice: %v", err)
	}
	return n
}

func TestWatchReceivesChangeNotices(t *testing.T) {
	ts, _ := setupServer(t)
	conn := dialWatch(t, ts.URL)

	pushChanges(t, ts, []models.SyncQueueEntry{
		entry("ch1", models.ChangeListCreate, models.ListCreateData{
			List: models.List{ID: "l1", Title: "Todo", Version: 1, LastModifiedAt: now()},
		}),
	})

	n := readNotice(t, conn)
	if n.Kind != "change" || n.ChangeID != "ch1" {
		t.Errorf("notice: got %+v", n)
	}
	if n.Type != string(models.ChangeListCreate) {
		t.Errorf("notice type: got %q", n.Type)
	}
}

func TestWatchSkipsFailedChanges(t *testing.T) {
	ts, _ := setupServer(t)
	conn := dialWatch(t, ts.URL)

	// One failing entry, then one good entry. Only the good one is announced.
	v := "x"
	pushChanges(t, ts, []models.SyncQueueEntry{
		entry("bad", models.ChangeCardUpdate, models.CardUpdateData{CardID: "ghost", Title: &v, Version: 1}),
		entry("good", models.ChangeListCreate, models.ListCreateData{
			List: models.List{ID: "l1", Title: "Todo", Version: 1, LastModifiedAt: now()},
		}),
	})

	n := readNotice(t, conn)
	if n.ChangeID != "good" {
		t.Errorf("first notice: got %+v, want the successful change", n)
	}
}

// newServerConn produces a real server-side websocket connection for hub
// tests.
func newServerConn(t *testing.T) *websocket.Conn {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-connCh:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("server conn not established")
		return nil
	}
}

func TestHubDropsSlowWatcher(t *testing.T) {
	h := NewHub()
	conn := newServerConn(t)
	ch := h.add(conn)

	// Fill the buffer without draining, then overflow it.
	for i := 0; i < cap(ch)+1; i++ {
		h.Broadcast(ChangeNotice{Kind: "change"})
	}

	if _, ok := <-ch; !ok {
		t.Fatal("buffered notices should still be readable")
	}
	h.mu.Lock()
	_, present := h.conns[conn]
	h.mu.Unlock()
	if present {
		t.Error("overflowing watcher should have been dropped")
	}
}

func TestHubCloseDisconnectsAll(t *testing.T) {
	h := NewHub()
	ch := h.add(newServerConn(t))
	h.Close()

	// Channel is closed; drain anything buffered then observe closure.
	for range ch {
	}
	if got := h.add(newServerConn(t)); got != nil {
		t.Error("add after close should refuse new watchers")
	}
}
