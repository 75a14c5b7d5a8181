package dev

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadMessageType is the kind of message sent to preview browsers.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadPath is the WebSocket endpoint browsers connect to.
const ReloadPath = "/_pagegen/reload"

// writeWait bounds a write to one browser so a stalled tab cannot hold up
// the others.
const writeWait = 5 * time.Second

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`

	// Pages is the page count after a successful regeneration.
	Pages int `json:"pages,omitempty"`
}

// ReloadServer tracks the browsers connected to the preview server and
// pushes regeneration results to them.
//
// While generation is failing, browsers that connect are sent the error
// right away, so a manual refresh still shows the overlay.
type ReloadServer struct {
	upgrader websocket.Upgrader

	// mu guards clients and pending. Writes happen under mu too, since a
	// websocket.Conn allows one concurrent writer.
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	pending *ReloadMessage
}

// NewReloadServer creates a new reload server.
func NewReloadServer() *ReloadServer {
	return &ReloadServer{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The preview server binds to a local address.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and holds the connection until the
// browser goes away.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.clients[conn] = struct{}{}
	if r.pending != nil {
		r.send(conn, *r.pending)
	}
	r.mu.Unlock()

	// Browsers never send anything; reading only detects the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	r.mu.Lock()
	r.drop(conn)
	r.mu.Unlock()
}

// NotifyReload tells every browser to reload.
func (r *ReloadServer) NotifyReload(pageCount int) {
	r.broadcast(ReloadMessage{Type: ReloadTypeFull, Pages: pageCount})
}

// NotifyError shows errMsg in every browser's error overlay.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError removes the error overlay.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch msg.Type {
	case ReloadTypeError:
		r.pending = &msg
	case ReloadTypeClear, ReloadTypeFull:
		r.pending = nil
	}

	for conn := range r.clients {
		r.send(conn, msg)
	}
}

// send writes msg to conn, dropping the connection if the write fails.
// The caller holds r.mu.
func (r *ReloadServer) send(conn *websocket.Conn, msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		r.drop(conn)
	}
}

// drop closes and forgets conn. The caller holds r.mu.
func (r *ReloadServer) drop(conn *websocket.Conn) {
	if _, ok := r.clients[conn]; ok {
		delete(r.clients, conn)
		conn.Close()
	}
}

// ClientCount returns the number of connected browsers.
func (r *ReloadServer) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close disconnects every browser.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.clients {
		r.drop(conn)
	}
}

// DevClientScript is injected into every page served by the preview server.
// It reloads on regeneration and overlays regeneration errors, reconnecting
// with backoff while the server restarts.
const DevClientScript = `
<script>
(function () {
  var overlayID = 'pagegen-error-overlay';
  var delay = 500;

  function clearOverlay() {
    var el = document.getElementById(overlayID);
    if (el) el.remove();
  }

  function showOverlay(text) {
    clearOverlay();
    var el = document.createElement('div');
    el.id = overlayID;
    el.style.cssText = 'position:fixed;inset:0;z-index:2147483647;overflow:auto;padding:24px;' +
      'background:rgba(20,20,20,0.92);color:#eee;font:14px/1.5 ui-monospace,monospace;';
    var h = document.createElement('h2');
    h.style.color = '#f66';
    h.textContent = 'pagegen: generation failed';
    var pre = document.createElement('pre');
    pre.style.whiteSpace = 'pre-wrap';
    pre.textContent = text;
    var p = document.createElement('p');
    p.style.color = '#999';
    p.textContent = 'The last good pages are still being served. Save a fix to reload.';
    el.append(h, pre, p);
    document.body.appendChild(el);
  }

  function connect() {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(scheme + location.host + '` + ReloadPath + `');
    ws.onopen = function () { delay = 500; };
    ws.onmessage = function (ev) {
      var msg;
      try { msg = JSON.parse(ev.data); } catch (e) { return; }
      if (msg.type === 'reload') location.reload();
      else if (msg.type === 'error') showOverlay(msg.error);
      else if (msg.type === 'clear') clearOverlay();
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 10000);
    };
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', connect);
  } else {
    connect();
  }
})();
</script>
`
