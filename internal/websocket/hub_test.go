package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contractbuilder/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, origins []string) (*Hub, *httptest.Server, chan struct{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(origins)
	go hub.Run(ctx)

	registered := make(chan struct{}, 4)
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		hub.Serve(c)
		registered <- struct{}{}
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server, registered
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, server, registered := startHub(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-registered

	hub.Publish(context.Background(), notify.Event{
		ID:             "01J",
		Type:           notify.EventContractSigned,
		ContractNumber: "AEMCO-2025-0001",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got notify.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, notify.EventContractSigned, got.Type)
	assert.Equal(t, "AEMCO-2025-0001", got.ContractNumber)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, server, _ := startHub(t, []string{"http://localhost:5173"})

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	for i := 0; i < sendBufferSize+10; i++ {
		hub.Publish(context.Background(), notify.Event{Type: notify.EventContractSent})
	}
}
