package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	frame := []byte(`{"type":"frame","seq":1}`)
	h.BroadcastFrame(frame)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != string(frame) {
		t.Fatalf("got %q, want %q", msg, frame)
	}
}

func TestHub_LateJoinerGetsLatestFrame(t *testing.T) {
	h := NewHub()
	h.BroadcastFrame([]byte(`{"type":"frame","seq":7}`))

	conn := dialHub(t, h)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(msg), `"seq":7`) {
		t.Fatalf("late joiner got %q, want the cached frame", msg)
	}
}

func TestHub_CommandsReachTheChannel(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"zoom_in","factor":2}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-h.Commands:
		if cmd.Type != "zoom_in" || cmd.Factor != 2 {
			t.Fatalf("cmd = %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never arrived")
	}
}

func TestHub_MalformedCommandsAreIgnored(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	for _, payload := range []string{`not json`, `{"factor":2}`, `{}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			t.Fatal(err)
		}
	}
	// A valid command after the junk proves the pump survived.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pan","offset":-5}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-h.Commands:
		if cmd.Type != "pan" || cmd.Offset != -5 {
			t.Fatalf("cmd = %+v, junk must be skipped", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never arrived")
	}
}

func TestHub_DisconnectUpdatesCount(t *testing.T) {
	h := NewHub()
	var mu sync.Mutex
	var counts []int
	h.OnClientCount = func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	}

	conn := dialHub(t, h)
	conn.Close()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) >= 2 && counts[len(counts)-1] == 0
	})

	mu.Lock()
	defer mu.Unlock()
	if counts[0] != 1 {
		t.Fatalf("counts = %v, want connect then disconnect", counts)
	}
}
