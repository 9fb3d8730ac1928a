package httpkit_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/pkg/httpkit"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]int{"count": 3})
	}))
	defer srv.Close()

	resp, err := httpkit.Get(srv.URL).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var body map[string]int
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, 3, body["count"])
}

func TestPostJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dal", body["name"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := httpkit.Post(srv.URL).Body(map[string]string{"name": "dal"}).Send()
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestBearerSkipsEmptyToken(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	_, err := httpkit.Get(srv.URL).Bearer("").Send()
	require.NoError(t, err)
	assert.Equal(t, "", got.Load())

	_, err = httpkit.Get(srv.URL).Bearer("tok").Send()
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Load())
}

func TestMultipartWithFileAndFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, `{"name":"dal"}`, r.FormValue("data"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "dal.png", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, []byte{1, 2, 3}, content)
	}))
	defer srv.Close()

	resp, err := httpkit.Post(srv.URL).
		Field("data", `{"name":"dal"}`).
		File("image", "dal.png", []byte{1, 2, 3}).
		Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestRetryIsOptIn(t *testing.T) {
	// Kills the connection on the first call to force a transport error.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Default: a single attempt, the failure comes straight back.
	_, err := httpkit.Get(srv.URL).Send()
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Opted in: the second attempt succeeds.
	calls.Store(0)
	resp, err := httpkit.Get(srv.URL).Retry(2, 5*time.Millisecond).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(2), calls.Load())
}

func TestErrorStatusIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := httpkit.Get(srv.URL).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "non-2xx is a response, not a transport failure")
}

func TestThrowOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer srv.Close()

	resp, err := httpkit.Get(srv.URL).Send()
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Error(t, resp.Throw())
	assert.Equal(t, "missing", resp.Text())
}
