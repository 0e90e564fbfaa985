package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Fetch_Success(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		assert.Equal(t, "https://example.com/page", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, []string{"key-a", "key-b"})

	body, status, err := tr.Fetch(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Equal(t, "key-a", gotKey)
	assert.Equal(t, 1, tr.Calls())
}

func TestTransport_Fetch_RotatesOn429AndRetriesOnce(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		keys = append(keys, key)
		if key == "key-a" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, []string{"key-a", "key-b"})

	body, status, err := tr.Fetch(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "body", string(body))
	assert.Equal(t, []string{"key-a", "key-b"}, keys)
	assert.Equal(t, 1, tr.KeyIndex(), "cursor stays on the rotated key")
}

func TestTransport_Fetch_NonOKReturnsNilBodyNoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, []string{"key-a"})

	body, status, err := tr.Fetch(context.Background(), "https://example.com/missing")
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Equal(t, http.StatusNotFound, status)
}
