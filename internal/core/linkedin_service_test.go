package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gwi.com/linkedin-agent/internal/store"
)

const (
	testCookie    = `li_at=AQEDAR; JSESSIONID="ajax:1234abcd"`
	testUserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
)

func setupTestService(t *testing.T, handler http.HandlerFunc) (*LinkedInService, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	s := NewLinkedInService(server.URL+"/voyager/api/me", time.Second, zap.NewNop())
	return s, &calls
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchProfile_SendsHeaders(t *testing.T) {
	s, calls := setupTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/voyager/api/me", r.URL.Path)
		assert.Equal(t, testCookie, r.Header.Get("Cookie"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.linkedin.normalized+json+2.1", r.Header.Get("Accept"))
		assert.Equal(t, "en-US,en;q=0.9", r.Header.Get("Accept-Language"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Equal(t, "1234abcd", r.Header.Get("Csrf-Token"))
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		jsonBody(`{"firstName":"Jane","lastName":"Doe"}`)(w, r)
	})

	_, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchProfile_NoJSESSIONIDSendsEmptyToken(t *testing.T) {
	s, _ := setupTestService(t, func(w http.ResponseWriter, r *http.Request) {
		values, ok := r.Header["Csrf-Token"]
		assert.True(t, ok, "csrf-token header should be present")
		assert.Equal(t, []string{""}, values)
		jsonBody(`{}`)(w, r)
	})

	_, err := s.FetchProfile(context.Background(), "li_at=abc", testUserAgent)
	require.NoError(t, err)
}

func TestFetchProfile_Normalization(t *testing.T) {
	tests := []struct {
		name string
		body string
		want store.Profile
	}{
		{
			name: "complete without image",
			body: `{"firstName":"Jane","lastName":"Doe","headline":"Engineer","publicIdentifier":"janedoe"}`,
			want: store.Profile{Name: "Jane Doe", Headline: "Engineer", ProfilePhoto: "/default-avatar.png", PublicIdentifier: "janedoe"},
		},
		{
			name: "missing headline",
			body: `{"firstName":"Jane","lastName":"Doe","publicIdentifier":"janedoe"}`,
			want: store.Profile{Name: "Jane Doe", Headline: "No headline available", ProfilePhoto: "/default-avatar.png", PublicIdentifier: "janedoe"},
		},
		{
			name: "empty headline",
			body: `{"firstName":"Jane","lastName":"Doe","headline":""}`,
			want: store.Profile{Name: "Jane Doe", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "missing last name keeps separator",
			body: `{"firstName":"Jane"}`,
			want: store.Profile{Name: "Jane ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "empty document",
			body: `{}`,
			want: store.Profile{Name: " ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "wrong field types treated as absent",
			body: `{"firstName":7,"lastName":null,"headline":{"text":"x"},"publicIdentifier":["a"]}`,
			want: store.Profile{Name: " ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "vector image",
			body: `{"firstName":"Jane","lastName":"Doe","profilePicture":{"displayImageReference":{"vectorImage":{
				"rootUrl":"https://media.licdn.com/dms/image/",
				"artifacts":[{"fileIdentifyingUrlPathSegment":"100_100/photo.jpg"},{"fileIdentifyingUrlPathSegment":"200_200/photo.jpg"}]}}}}`,
			want: store.Profile{Name: "Jane Doe", Headline: "No headline available", ProfilePhoto: "https://media.licdn.com/dms/image/100_100/photo.jpg"},
		},
		{
			name: "root url without artifacts",
			body: `{"profilePicture":{"displayImageReference":{"vectorImage":{"rootUrl":"https://media.licdn.com/","artifacts":[]}}}}`,
			want: store.Profile{Name: " ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "malformed image reference",
			body: `{"profilePicture":{"displayImageReference":"nope"}}`,
			want: store.Profile{Name: " ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
		{
			name: "image reference is not an object",
			body: `{"profilePicture":"https://example.com/a.jpg"}`,
			want: store.Profile{Name: " ", Headline: "No headline available", ProfilePhoto: "/default-avatar.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestService(t, jsonBody(tt.body))

			got, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFetchProfile_Idempotent(t *testing.T) {
	body := `{"firstName":"Jane","lastName":"Doe","headline":"Engineer","publicIdentifier":"janedoe"}`
	s, calls := setupTestService(t, jsonBody(body))

	first, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
	require.NoError(t, err)
	second, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchProfile_MissingCredentials(t *testing.T) {
	s, calls := setupTestService(t, jsonBody(`{}`))

	for _, tc := range []struct{ cookie, ua string }{
		{"", testUserAgent},
		{testCookie, ""},
		{"", ""},
	} {
		_, err := s.FetchProfile(context.Background(), tc.cookie, tc.ua)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchProfile_UpstreamStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests, http.StatusInternalServerError} {
		s, _ := setupTestService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"status":`+http.StatusText(status)+`}`, status)
		})

		profile, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
		assert.Nil(t, profile)

		var upstreamErr *UpstreamError
		require.True(t, errors.As(err, &upstreamErr), "expected UpstreamError, got %v", err)
		assert.Equal(t, status, upstreamErr.StatusCode)
		assert.NotContains(t, err.Error(), http.StatusText(status), "upstream body must not leak into the error")
	}
}

func TestFetchProfile_MalformedJSON(t *testing.T) {
	for _, body := range []string{`{"firstName":`, `not json`, `null`, `[1,2]`} {
		s, _ := setupTestService(t, jsonBody(body))

		profile, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
		assert.Nil(t, profile)

		var transportErr *TransportError
		assert.True(t, errors.As(err, &transportErr), "body %q: expected TransportError, got %v", body, err)
	}
}

func TestFetchProfile_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := NewLinkedInService(url, time.Second, zap.NewNop())
	profile, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)
	assert.Nil(t, profile)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
}

func TestFetchProfile_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	s, _ := setupTestService(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	s.httpClient.Timeout = 50 * time.Millisecond

	_, err := s.FetchProfile(context.Background(), testCookie, testUserAgent)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
}

func TestNewLinkedInService_DefaultTimeout(t *testing.T) {
	s := NewLinkedInService("http://example.test", 0, zap.NewNop())
	assert.Equal(t, defaultUpstreamTimeout, s.httpClient.Timeout)
}
