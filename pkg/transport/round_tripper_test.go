package transport_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/microservices/backoffice/pkg/logger"
	"github.com/samandr77/microservices/backoffice/pkg/transport"
)

//nolint:paralleltest
func TestLoggingRoundTripper_RoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)

	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewJSONHandler(new(bytes.Buffer), nil))) })

	var gotRequestID string

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusAccepted)
		_, _ = fmt.Fprintf(w, `{"message": "hello world"}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := &http.Client{
		Timeout:   time.Second * 10,
		Transport: transport.NewLoggingRoundTripper(http.DefaultTransport),
	}

	ctx := logger.WithRequestID(context.Background(), "req-42")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/test", strings.NewReader(`{}`))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, "req-42", gotRequestID)

	var lines []map[string]any

	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}

	require.Len(t, lines, 2)
	require.Equal(t, "outgoing request", lines[0]["msg"])
	require.Equal(t, "POST "+server.URL+"/test", lines[0]["request"])
	require.Equal(t, "incoming response", lines[1]["msg"])
	require.InDelta(t, http.StatusAccepted, lines[1]["status"], 0)
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: transport.NewLoggingRoundTripper(nil)}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://127.0.0.1:1/unreachable", nil)
	require.NoError(t, err)

	_, err = client.Do(req) //nolint:bodyclose
	require.Error(t, err)
}
