package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBody struct {
	Username string `json:"username"`
}

func newTestClient() *Client {
	return New(Options{Platform: "linux", AppVersion: "2.3.4"})
}

func TestGetDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = w.Write([]byte(`{"value":{"username":"kid"},"failureReason":null,"isSuccess":true}`))
	}))
	defer srv.Close()

	var env Envelope[echoBody]
	err := newTestClient().Get(context.Background(), srv.URL, nil, &env)
	require.NoError(t, err)

	v, err := env.Result()
	require.NoError(t, err)
	assert.Equal(t, "kid", v.Username)
}

func TestDefaultHeadersAndOverride(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	headers := map[string]string{"accept": "text/plain", "Authorization": "Bearer abc"}
	require.NoError(t, newTestClient().Get(context.Background(), srv.URL, headers, nil))

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "text/plain", got.Get("Accept"))
	assert.Equal(t, "linux", got.Get("x-app-os"))
	assert.Equal(t, "2.3.4", got.Get("x-app-version"))
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
}

func TestPostAndDeleteSendBody(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				var in echoBody
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				_ = json.NewEncoder(w).Encode(Success(in))
			}))
			defer srv.Close()

			c := newTestClient()
			var env Envelope[echoBody]
			var err error
			if method == http.MethodPost {
				err = c.Post(context.Background(), srv.URL, nil, echoBody{Username: "a"}, &env)
			} else {
				err = c.Delete(context.Background(), srv.URL, nil, echoBody{Username: "a"}, &env)
			}
			require.NoError(t, err)
			v, err := env.Result()
			require.NoError(t, err)
			assert.Equal(t, "a", v.Username)
		})
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"value":null,"isSuccess":true}`))
	}))
	defer srv.Close()

	var env Envelope[echoBody]
	err := newTestClient().Get(context.Background(), srv.URL, nil, &env)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.StatusCode)
	assert.Equal(t, "HTTP error 404", err.Error())
	assert.Equal(t, 404, StatusCode(err))
}

func TestDecodingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var env Envelope[echoBody]
	err := newTestClient().Get(context.Background(), srv.URL, nil, &env)

	var decErr *DecodingError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, decErr.Message, "Failed to decode")
	assert.Contains(t, err.Error(), "decoding failed")
}

func TestEncodingFailureSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	err := newTestClient().Post(context.Background(), srv.URL, nil, map[string]any{"bad": make(chan int)}, nil)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Contains(t, encErr.Message, "Failed to encode body")
	assert.Zero(t, hits.Load())
}

func TestInvalidURL(t *testing.T) {
	err := newTestClient().Get(context.Background(), "not a url", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidURL)

	err = newTestClient().Get(context.Background(), "://missing-scheme", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestNoResponseIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	addr := srv.URL
	srv.Close()

	err := newTestClient().Get(context.Background(), addr, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestPerCallTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := newTestClient().Get(context.Background(), srv.URL, nil, nil, WithTimeout(30*time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEnvelopeResult(t *testing.T) {
	_, err := Failure[[]int]("Server response error message").Result()
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Server response error message", serverErr.Reason)
	assert.Equal(t, "Server response error message", err.Error())

	_, err = Envelope[[]int]{IsSuccess: true}.Result()
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = Envelope[[]int]{IsSuccess: false}.Result()
	assert.ErrorIs(t, err, ErrUnknown)

	v, err := Success([]int{}).Result()
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestEnvelopeDecodesEmptyList(t *testing.T) {
	var env Envelope[[]int]
	require.NoError(t, json.Unmarshal([]byte(`{"value":[],"failureReason":null,"isSuccess":true}`), &env))
	v, err := env.Result()
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Len(t, v, 0)
}
