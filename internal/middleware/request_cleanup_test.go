package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestLimitRequestBody_DrainsAndCloses(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(`{"weight": 70.5, "note": "unread"}`)}
	req := httptest.NewRequest(http.MethodPost, "/progress/weight", nil)
	req.Body = body

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// reads only part of the body
		buf := make([]byte, 4)
		_, _ = r.Body.Read(buf)
	})
	LimitRequestBody(DefaultMaxRequestBody)(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, body.closed)
	rest, _ := io.ReadAll(body.Reader)
	assert.Empty(t, rest)
}

func TestLimitRequestBody_TooLarge(t *testing.T) {
	large := `{"name": "` + strings.Repeat("a", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/onboarding", strings.NewReader(large))

	var decodeErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var profile map[string]any
		decodeErr = json.NewDecoder(r.Body).Decode(&profile)
	})
	LimitRequestBody(1024)(next).ServeHTTP(httptest.NewRecorder(), req)

	var maxBytesErr *http.MaxBytesError
	require.ErrorAs(t, decodeErr, &maxBytesErr)
	assert.Equal(t, int64(1024), maxBytesErr.Limit)
}

func TestLimitRequestBody_NoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/state", nil)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	rr := httptest.NewRecorder()
	LimitRequestBody(DefaultMaxRequestBody)(next).ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}
