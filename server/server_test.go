package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuchniy0511/ordkv/config"
	"github.com/skuchniy0511/ordkv/store"
	"github.com/skuchniy0511/ordkv/transport"
	"github.com/skuchniy0511/ordkv/types"
)

func newTestServer(t *testing.T) (*Server, *transport.Memory, *store.Store, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "journal.log")
	conf, err := config.Parse([]byte("transport: memory\nlogLevel: error\nlogFile: " + logPath))
	require.NoError(t, err)

	tr := transport.NewMemory()
	data := store.New(types.Entry[string, string]{Key: "A", Value: "1"})
	srv, err := NewServer(conf, tr, data)
	require.NoError(t, err)

	return srv, tr, data, logPath
}

func publish(t *testing.T, tr transport.Transport, body string) {
	t.Helper()
	err := tr.Publish(context.Background(), "items", transport.Message{ReplyTo: "items.results", Body: []byte(body)})
	require.NoError(t, err)
}

func nextResult(t *testing.T, results <-chan transport.Message) (types.Result, transport.Message) {
	t.Helper()
	select {
	case msg := <-results:
		var res types.Result
		require.NoError(t, json.Unmarshal(msg.Body, &res))
		return res, msg
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
	return types.Result{}, transport.Message{}
}

func TestServerProcessesInOrder(t *testing.T) {
	srv, tr, data, logPath := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.StartServer() }()

	results, err := tr.Consume(context.Background(), "items.results")
	require.NoError(t, err)

	publish(t, tr, `{"id":"1","action":"AddItem","key":"B","value":"2"}`)
	publish(t, tr, `{"id":"2","action":"InsertItem","key":"C","value":"3","index":0}`)
	publish(t, tr, `{"id":"3","action":"DescribeItems"}`)
	publish(t, tr, `not json`)

	res, msg := nextResult(t, results)
	assert.Equal(t, "1", res.ID)
	assert.Equal(t, "1", msg.CorrelationID)
	assert.Equal(t, 2, res.Count)

	res, _ = nextResult(t, results)
	assert.Equal(t, types.InsertItem, res.Action)
	require.NotNil(t, res.Index)
	assert.Equal(t, 0, *res.Index)

	res, _ = nextResult(t, results)
	assert.Equal(t, "[C: 3, A: 1, B: 2]", res.Description)

	res, _ = nextResult(t, results)
	assert.Contains(t, res.Error, "cannot unmarshal item")

	srv.Cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, "[C: 3, A: 1, B: 2]", data.Snapshot().String())

	journal, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(journal), "AddItem() done. Item(key: B, value: 2) created: true")
	assert.Contains(t, string(journal), "lvl=warn")
}

func TestServerWithoutReplyTo(t *testing.T) {
	srv, tr, data, _ := newTestServer(t)

	err := tr.Publish(context.Background(), "items", transport.Message{Body: []byte(`{"action":"RemoveItem","key":"A"}`)})
	require.NoError(t, err)

	messages, err := tr.Consume(srv.ctx, "items")
	require.NoError(t, err)
	srv.processMessage(<-messages)
	srv.Cancel()

	assert.Equal(t, 0, data.Len())
}

func TestOpenTransport(t *testing.T) {
	conf, err := config.Parse([]byte("transport: memory"))
	require.NoError(t, err)
	logger, err := NewLogger(conf, "test")
	require.NoError(t, err)

	tr, err := OpenTransport(conf, logger)
	require.NoError(t, err)
	assert.IsType(t, &transport.Memory{}, tr)

	conf.Transport = "carrier-pigeon"
	_, err = OpenTransport(conf, logger)
	assert.ErrorIs(t, err, config.ErrUnknownTransport)
}

func TestNewLoggerBadLevel(t *testing.T) {
	conf := &config.Config{LogLevel: "loud"}
	_, err := NewLogger(conf, "test")
	assert.Error(t, err)
}
