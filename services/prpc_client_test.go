package services

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodedash/config"
	"pnodedash/models"
)

func newTestClient(url string, timeoutMS int) *PRPCClient {
	cfg := config.Default()
	cfg.PRPC.URL = url
	cfg.PRPC.TimeoutMS = timeoutMS
	return NewPRPCClient(cfg)
}

func requireKind(t *testing.T, err error, kind models.GatewayErrorKind) *models.GatewayError {
	t.Helper()
	require.Error(t, err)
	gwErr, ok := models.AsGatewayError(err)
	require.True(t, ok, "expected GatewayError, got %T: %v", err, err)
	require.Equal(t, kind, gwErr.Kind, gwErr.Error())
	return gwErr
}

func TestGetPods_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rpc", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, int64(len(body)), r.ContentLength)

		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, models.MethodGetPodsWithStats, req["method"])
		assert.Equal(t, map[string]any{}, req["params"])
		assert.NotEmpty(t, req["id"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"jsonrpc":"2.0","id":"`+req["id"].(string)+`","result":{"pods":[
			{"pubkey":"pk1","address":"10.0.0.5:9001","rpc_port":6000,"version":"0.8.0","is_public":true,"uptime":120},
			{"pubkey":"pk2","address":"10.0.0.6:9001","is_public":false}
		],"total_count":2}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL+"/rpc", 1000)
	pods, err := client.GetPods(context.Background())
	require.NoError(t, err)
	require.Len(t, pods, 2)

	nodes := NormalizePods(pods)
	assert.Equal(t, "pk1", nodes[0].Pubkey)
	assert.Equal(t, "10.0.0.5", nodes[0].IP)
	assert.Equal(t, models.StatusActive, nodes[0].Status)
	assert.Equal(t, models.StatusInactive, nodes[1].Status)
}

func TestGetPods_EmptyResults(t *testing.T) {
	bodies := map[string]string{
		"pods missing":   `{"jsonrpc":"2.0","id":"1","result":{}}`,
		"pods empty":     `{"jsonrpc":"2.0","id":"1","result":{"pods":[]}}`,
		"pods null":      `{"jsonrpc":"2.0","id":"1","result":{"pods":null}}`,
		"result missing": `{"jsonrpc":"2.0","id":"1"}`,
		"result null":    `{"jsonrpc":"2.0","id":1,"result":null,"error":null}`,
		"result scalar":  `{"jsonrpc":"2.0","id":"1","result":"ok"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer server.Close()

			pods, err := newTestClient(server.URL, 1000).GetPods(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, pods)
			assert.Empty(t, pods)
			assert.Empty(t, NormalizePods(pods))
		})
	}
}

func TestGetPods_PodsNotAList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"jsonrpc":"2.0","id":"1","result":{"pods":{"a":1}}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	requireKind(t, err, models.ErrKindMalformedResponse)
}

func TestGetPods_HTTPErrorKeepsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "upstream exploded <html>")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	gwErr := requireKind(t, err, models.ErrKindHTTP)
	assert.Equal(t, http.StatusInternalServerError, gwErr.StatusCode)
	assert.Equal(t, "upstream exploded <html>", gwErr.Body)
}

func TestGetPods_Error404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	gwErr := requireKind(t, err, models.ErrKindHTTP)
	assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
	assert.Empty(t, gwErr.Body)
}

func TestGetPods_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	requireKind(t, err, models.ErrKindMalformedResponse)
}

func TestGetPods_JSONRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := models.RPCResponse{
			JSONRPC: "2.0",
			ID:      json.RawMessage(`"1"`),
			Result:  json.RawMessage(`{"pods":[{"pubkey":"ignored"}]}`),
			Error: &models.RPCError{
				Code:    -32601,
				Message: "method not found",
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	pods, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	gwErr := requireKind(t, err, models.ErrKindRPC)
	assert.Nil(t, pods)
	assert.Equal(t, -32601, gwErr.RPCCode)
	assert.Contains(t, gwErr.Message, "method not found")
}

func TestGetPods_LooseEnvelope(t *testing.T) {
	rpcErrors := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"error is a string", `{"jsonrpc":"2.0","id":"1","error":"boom"}`, 0, "pRPC error: Unknown error"},
		{"code is a string", `{"jsonrpc":"2.0","id":"1","error":{"code":"-32601","message":"method not found"}}`, -32601, "pRPC error: method not found"},
		{"message is a number", `{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":5}}`, -32601, "pRPC error: Unknown error"},
		{"empty error object", `{"jsonrpc":"2.0","id":"1","error":{},"result":{"pods":[{"pubkey":"a"}]}}`, 0, "pRPC error: Unknown error"},
	}

	for _, tt := range rpcErrors {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			pods, err := newTestClient(server.URL, 1000).GetPods(context.Background())
			gwErr := requireKind(t, err, models.ErrKindRPC)
			assert.Nil(t, pods)
			assert.Equal(t, tt.code, gwErr.RPCCode)
			assert.Equal(t, tt.message, gwErr.Message)
		})
	}

	successes := map[string]string{
		"numeric jsonrpc": `{"jsonrpc":2,"result":{"pods":[{"pubkey":"a"}]}}`,
		"object id":       `{"jsonrpc":"2.0","id":{"n":1},"result":{"pods":[{"pubkey":"a"}]}}`,
		"falsy error":     `{"jsonrpc":"2.0","id":"1","error":false,"result":{"pods":[{"pubkey":"a"}]}}`,
	}

	for name, body := range successes {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer server.Close()

			pods, err := newTestClient(server.URL, 1000).GetPods(context.Background())
			require.NoError(t, err)
			require.Len(t, pods, 1)
			assert.Equal(t, "a", *pods[0].Pubkey)
		})
	}

	// Valid JSON that is not an object carries no pods.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[1,2,3]`)
	}))
	defer server.Close()

	pods, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pods)
}

func TestGetPods_NoRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 1000).GetPods(context.Background())
	requireKind(t, err, models.ErrKindHTTP)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGetPods_Timeout(t *testing.T) {
	aborted := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server only notices a closed connection once the body is consumed.
		io.ReadAll(r.Body)
		select {
		case <-r.Context().Done():
			close(aborted)
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(server.URL, 100).GetPods(context.Background())
	requireKind(t, err, models.ErrKindTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The client must have dropped the connection, which cancels the
	// server-side request context.
	select {
	case <-aborted:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not aborted after timeout")
	}
}

func TestGetPods_NetworkError(t *testing.T) {
	// Grab a free port and close it so the connection is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = newTestClient("http://"+addr, 1000).GetPods(context.Background())
	gwErr := requireKind(t, err, models.ErrKindNetwork)
	assert.NotNil(t, gwErr.Original)
}

func TestGetPods_ConfigErrorsSkipNetwork(t *testing.T) {
	tests := []struct {
		url  string
		kind models.GatewayErrorKind
	}{
		{"", models.ErrKindConfigMissing},
		{"not a url", models.ErrKindURLMalformed},
		{"ftp://host", models.ErrKindUnsupportedScheme},
		{"http://host:abc", models.ErrKindInvalidPort},
		{"http://host:99999", models.ErrKindInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			client := newTestClient(tt.url, 1000)
			assert.Nil(t, client.Endpoint())
			requireKind(t, client.ConfigError(), tt.kind)

			_, err := client.GetPods(context.Background())
			requireKind(t, err, tt.kind)
		})
	}
}

func TestGetPods_ConcurrentCallsAreIndependent(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n%2 == 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"jsonrpc":"2.0","id":"1","result":{"pods":[{"pubkey":"a"}]}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2000)

	var wg sync.WaitGroup
	var ok, failed int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pods, err := client.GetPods(context.Background())
			if err != nil {
				assert.True(t, models.IsGatewayErrorKind(err, models.ErrKindHTTP), err.Error())
				atomic.AddInt32(&failed, 1)
				return
			}
			assert.Len(t, pods, 1)
			atomic.AddInt32(&ok, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(5), ok)
	assert.Equal(t, int32(5), failed)
}
