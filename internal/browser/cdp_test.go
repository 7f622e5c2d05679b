package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingWS answers every DevTools call with an empty result and keeps the
// method names. Once muted it stops answering.
type recordingWS struct {
	mu      sync.Mutex
	methods []string
	muted   bool

	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newRecordingWS() *recordingWS {
	return &recordingWS{out: make(chan []byte, 64), closed: make(chan struct{})}
}

func (w *recordingWS) Send(data []byte) error {
	var req struct {
		ID        int    `json:"id"`
		SessionID string `json:"sessionId"`
		Method    string `json:"method"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	w.mu.Lock()
	w.methods = append(w.methods, req.Method)
	muted := w.muted
	w.mu.Unlock()
	if muted {
		return nil
	}

	result := `{}`
	if req.Method == "Target.attachToTarget" {
		result = `{"sessionId":"session-1"}`
	}
	msg := fmt.Sprintf(`{"id":%d,"sessionId":%q,"result":%s}`, req.ID, req.SessionID, result)
	select {
	case w.out <- []byte(msg):
	case <-w.closed:
	}
	return nil
}

func (w *recordingWS) Read() ([]byte, error) {
	select {
	case msg := <-w.out:
		return msg, nil
	case <-w.closed:
		return nil, io.EOF
	}
}

func (w *recordingWS) Close() error {
	w.once.Do(func() { close(w.closed) })
	return nil
}

func (w *recordingWS) mute() {
	w.mu.Lock()
	w.muted = true
	w.mu.Unlock()
}

func (w *recordingWS) recorded() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.methods...)
}

func newTestPage(t *testing.T, c *CDPConnector) (*recordingWS, *cdpPage) {
	t.Helper()
	ws := newRecordingWS()
	s, err := c.newSession(ws, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return ws, &cdpPage{session: s, info: &proto.TargetTargetInfo{
		TargetID: "target-1",
		Type:     proto.TargetTargetInfoTypePage,
		URL:      "https://example.com/article",
	}}
}

func TestAttachLeavesTabEmulationAlone(t *testing.T) {
	ws, p := newTestPage(t, &CDPConnector{})

	_, err := p.attach(context.Background())
	require.NoError(t, err)

	methods := ws.recorded()
	assert.Contains(t, methods, "Target.attachToTarget")
	for _, m := range methods {
		assert.False(t, strings.HasPrefix(m, "Emulation."), "unexpected %s", m)
		assert.NotEqual(t, "Network.setUserAgentOverride", m)
	}
}

func TestHTMLGivesUpOnUnresponsiveTab(t *testing.T) {
	ws, p := newTestPage(t, &CDPConnector{CaptureTimeout: 50 * time.Millisecond})

	_, err := p.attach(context.Background())
	require.NoError(t, err)
	ws.mute()

	start := time.Now()
	_, err = p.HTML(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCaptureTimeoutDefault(t *testing.T) {
	_, p := newTestPage(t, &CDPConnector{})
	assert.Equal(t, DefaultCaptureTimeout, p.session.captureTimeout)
}

func TestResolveURLReadsVersionEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"Browser":"Chrome/120","webSocketDebuggerUrl":"ws://127.0.0.1:9222/devtools/browser/abc"}`)
	}))
	defer srv.Close()

	u, err := resolveURL(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u, "/devtools/browser/abc"), u)
}

func TestResolveURLReturnsOnCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := resolveURL(ctx, strings.TrimPrefix(srv.URL, "http://"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
