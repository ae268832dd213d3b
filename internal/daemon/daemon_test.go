package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compd-sh/compd/internal/cerrors"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/internal/registry"
	"github.com/compd-sh/compd/internal/source"
)

const gitBlob = `{
  "version": 1,
  "name": "git",
  "subcommands": [
    {
      "name": "checkout",
      "options": [
        {"names": ["-b"], "takes_value": true},
        {"names": ["-f", "--force"]}
      ],
      "args": [{"generator": "git-branches"}]
    },
    {"name": "cherry-pick"},
    {"name": "commit", "options": [{"names": ["-m", "--message"], "takes_value": true}]}
  ]
}`

type memSource struct {
	blobs map[string][]byte
}

func (m *memSource) LoadBlob(name string) ([]byte, error) {
	blob, ok := m.blobs[name]
	if !ok {
		return nil, source.ErrNotFound
	}
	return blob, nil
}

func (m *memSource) List() []string {
	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	return names
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	log := logger.New("error", nil)
	src := &memSource{blobs: map[string][]byte{"git": []byte(gitBlob)}}
	return NewHandler(registry.New(src, 10, log), log)
}

func TestHandler_SubcommandCompletion(t *testing.T) {
	h := newHandler(t)

	suggestions, err := h.Complete(context.Background(), "git ch", 6)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "checkout", suggestions[0].Text)
	assert.Equal(t, "cherry-pick", suggestions[1].Text)
}

func TestHandler_EmptyBufferListsCommands(t *testing.T) {
	h := newHandler(t)

	suggestions, err := h.Complete(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "git", suggestions[0].Text)
}

func TestHandler_UnknownCommandIsEmptyNotError(t *testing.T) {
	h := newHandler(t)

	suggestions, err := h.Complete(context.Background(), "frobnicate su", 13)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestHandler_BufferTooLong(t *testing.T) {
	h := newHandler(t)

	buffer := strings.Repeat("x", MaxBufferLen+1)
	_, err := h.Complete(context.Background(), buffer, 0)
	assert.Equal(t, "INVALID_BUFFER", cerrors.WireCode(err))
}

func TestHandler_InvalidUTF8(t *testing.T) {
	h := newHandler(t)

	_, err := h.Complete(context.Background(), "git \xff\xfe", 0)
	assert.Equal(t, "INVALID_BUFFER", cerrors.WireCode(err))
}

func TestHandler_CursorOutOfRange(t *testing.T) {
	h := newHandler(t)

	for _, cursor := range []int{-1, 4} {
		_, err := h.Complete(context.Background(), "git", cursor)
		assert.Equal(t, "INVALID_CURSOR", cerrors.WireCode(err), "cursor %d", cursor)
	}

	// Cursor at the end of the buffer is valid.
	_, err := h.Complete(context.Background(), "git", 3)
	assert.NoError(t, err)
}

func TestHandler_CorruptSpecDegradesToEmpty(t *testing.T) {
	log := logger.New("error", nil)
	src := &memSource{blobs: map[string][]byte{"bad": []byte("not json")}}
	h := NewHandler(registry.New(src, 10, log), log)

	suggestions, err := h.Complete(context.Background(), "bad sub", 7)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

// startServer runs a daemon on a throwaway socket and waits until it
// accepts connections.
func startServer(t *testing.T, cfg Config) string {
	t.Helper()

	cfg.Socket = filepath.Join(t.TempDir(), "compd.sock")
	srv := New(cfg, newHandler(t), logger.New("error", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", cfg.Socket)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 5*time.Millisecond)

	return cfg.Socket
}

// roundTrip sends one raw line and decodes the response line.
func roundTrip(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) map[string]json.RawMessage {
	t.Helper()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(t, err)

	resp, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp, &decoded))
	return decoded
}

func suggestionTexts(t *testing.T, decoded map[string]json.RawMessage) []string {
	t.Helper()
	raw, ok := decoded["suggestions"]
	require.True(t, ok, "response has no suggestions field: %v", decoded)

	var suggestions []WireSuggestion
	require.NoError(t, json.Unmarshal(raw, &suggestions))
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Text
	}
	return out
}

func errorCode(t *testing.T, decoded map[string]json.RawMessage) string {
	t.Helper()
	raw, ok := decoded["code"]
	require.True(t, ok, "response has no code field: %v", decoded)
	var code string
	require.NoError(t, json.Unmarshal(raw, &code))
	return code
}

func TestServer_Completion(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	decoded := roundTrip(t, conn, reader, `{"buffer": "git ch", "cursor": 6}`)
	assert.Equal(t, []string{"checkout", "cherry-pick"}, suggestionTexts(t, decoded))
}

func TestServer_EmptySuggestionsStillRespond(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// -b takes a value but declares none; the response is an empty list,
	// never silence.
	decoded := roundTrip(t, conn, reader, `{"buffer": "git checkout -b ", "cursor": 16}`)
	assert.Empty(t, suggestionTexts(t, decoded))
}

func TestServer_MalformedJSONKeepsConnection(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	decoded := roundTrip(t, conn, reader, `{not json`)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, decoded))

	// The same connection serves the next request.
	decoded = roundTrip(t, conn, reader, `{"buffer": "git ch", "cursor": 6}`)
	assert.Equal(t, []string{"checkout", "cherry-pick"}, suggestionTexts(t, decoded))
}

func TestServer_InvalidCursor(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	decoded := roundTrip(t, conn, reader, `{"buffer": "git", "cursor": 99}`)
	assert.Equal(t, "INVALID_CURSOR", errorCode(t, decoded))
}

func TestServer_OversizedBuffer(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	req, err := json.Marshal(Request{Buffer: strings.Repeat("x", MaxBufferLen+1)})
	require.NoError(t, err)

	decoded := roundTrip(t, conn, reader, string(req))
	assert.Equal(t, "INVALID_BUFFER", errorCode(t, decoded))
}

func TestServer_OversizedLineClosesConnection(t *testing.T) {
	socket := startServer(t, Config{MaxRequestBytes: 4096})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	req, err := json.Marshal(Request{Buffer: strings.Repeat("x", 8000)})
	require.NoError(t, err)

	decoded := roundTrip(t, conn, reader, string(req))
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, decoded))

	// A stream with an overlong line cannot be resynced; the server
	// closes it after reporting.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = reader.ReadBytes('\n')
	assert.Error(t, err)
}

func TestServer_SequentialRequestsStayOrdered(t *testing.T) {
	socket := startServer(t, Config{})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	decoded := roundTrip(t, conn, reader, `{"buffer": "git ", "cursor": 4}`)
	assert.Equal(t, []string{"commit", "checkout", "cherry-pick"}, suggestionTexts(t, decoded))

	decoded = roundTrip(t, conn, reader, `{"buffer": "git checkout -", "cursor": 14}`)
	assert.Equal(t, []string{"-b", "-f", "--force"}, suggestionTexts(t, decoded))

	decoded = roundTrip(t, conn, reader, `{"buffer": "g", "cursor": 1}`)
	assert.Equal(t, []string{"git"}, suggestionTexts(t, decoded))
}

func TestServer_ConcurrentClients(t *testing.T) {
	socket := startServer(t, Config{})

	const clients = 16
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.Dial("unix", socket)
			require.NoError(t, err)
			defer conn.Close()
			reader := bufio.NewReader(conn)

			decoded := roundTrip(t, conn, reader, `{"buffer": "git ch", "cursor": 6}`)
			assert.Equal(t, []string{"checkout", "cherry-pick"}, suggestionTexts(t, decoded))
		}()
	}
	wg.Wait()
}

func TestServer_ShutdownClosesIdleConnections(t *testing.T) {
	cfg := Config{Socket: filepath.Join(t.TempDir(), "compd.sock")}
	srv := New(cfg, newHandler(t), logger.New("error", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", cfg.Socket)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 5*time.Millisecond)

	// A persistent client completes one request and then sits idle,
	// parked in the server's read loop.
	conn, err := net.Dial("unix", cfg.Socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)
	roundTrip(t, conn, reader, `{"buffer": "git ch", "cursor": 6}`)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not complete while an idle connection was open")
	}

	// The server side is gone; the client's next read fails.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = reader.ReadBytes('\n')
	assert.Error(t, err)
}

func TestServer_AdmissionLimitBlocksExtraClients(t *testing.T) {
	socket := startServer(t, Config{MaxConns: 1})

	// First client occupies the only slot.
	first, err := net.Dial("unix", socket)
	require.NoError(t, err)
	firstReader := bufio.NewReader(first)
	roundTrip(t, first, firstReader, `{"buffer": "git ch", "cursor": 6}`)

	// Second client connects (the listener queues it) but is not
	// accepted while the slot is held: its request goes unanswered.
	second, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer second.Close()
	secondReader := bufio.NewReader(second)

	_, err = second.Write([]byte(`{"buffer": "git ch", "cursor": 6}` + "\n"))
	require.NoError(t, err)

	_ = second.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, err = secondReader.ReadBytes('\n')
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	// Freeing the slot lets the queued client through; its buffered
	// request is served.
	require.NoError(t, first.Close())

	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := secondReader.ReadBytes('\n')
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.Equal(t, []string{"checkout", "cherry-pick"}, suggestionTexts(t, decoded))
}

func TestServer_RequestLimitBelowDefaultBuffer(t *testing.T) {
	socket := startServer(t, Config{MaxRequestBytes: 256})

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	req, err := json.Marshal(Request{Buffer: strings.Repeat("x", 1000)})
	require.NoError(t, err)

	// The configured limit applies even below the default read buffer
	// size.
	decoded := roundTrip(t, conn, reader, string(req))
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, decoded))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = reader.ReadBytes('\n')
	assert.Error(t, err)
}

func TestServer_ShutdownRemovesSocket(t *testing.T) {
	cfg := Config{Socket: filepath.Join(t.TempDir(), "compd.sock")}
	srv := New(cfg, newHandler(t), logger.New("error", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", cfg.Socket)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	_, err := net.Dial("unix", cfg.Socket)
	assert.Error(t, err)
}
