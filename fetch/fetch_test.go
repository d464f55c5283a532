package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// TestNewClient_DefaultUserAgent verifies a browser User-Agent is always set
func TestNewClient_DefaultUserAgent(t *testing.T) {
	client := NewClient(nil, 0)

	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

// TestNewClient_CopiesHeaders verifies later changes to the caller's map are
// not observed
func TestNewClient_CopiesHeaders(t *testing.T) {
	headers := map[string]string{"User-Agent": "custom/1.0"}
	client := NewClient(headers, time.Second)
	headers["User-Agent"] = "changed"

	assert.Equal(t, "custom/1.0", client.headers["User-Agent"])
	assert.Equal(t, time.Second, client.httpClient.Timeout)
}

// TestNewClient_LowercaseUserAgent verifies a lowercase user-agent key
// replaces the default instead of competing with it
func TestNewClient_LowercaseUserAgent(t *testing.T) {
	var gotUA []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Values("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := NewClient(map[string]string{"user-agent": "custom/1.0"}, time.Second)
	assert.Len(t, client.headers, 1)
	assert.Equal(t, "custom/1.0", client.headers["User-Agent"])

	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom/1.0"}, gotUA)
}

// TestGet_SendsHeaders verifies configured headers reach the server
func TestGet_SendsHeaders(t *testing.T) {
	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := NewClient(map[string]string{
		"User-Agent":      "newsgrab-test",
		"Accept-Language": "ru-RU",
	}, time.Second)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "newsgrab-test", gotUA)
	assert.Equal(t, "ru-RU", gotLang)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<html></html>", string(resp.Body))
}

// TestGet_StatusError verifies non-200 responses become *StatusError
func TestGet_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(nil, time.Second)
	_, err := client.Get(context.Background(), server.URL+"/missing")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, server.URL+"/missing", statusErr.URL)
	assert.Contains(t, err.Error(), "404")
}

// TestGet_TransportError verifies unreachable hosts return an error
func TestGet_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(nil, time.Second)
	_, err := client.Get(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch URL")
}

// TestGet_InvalidURL verifies malformed URLs fail before any request
func TestGet_InvalidURL(t *testing.T) {
	client := NewClient(nil, time.Second)
	_, err := client.Get(context.Background(), "http://[::1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")
}

// TestGet_Timeout verifies slow servers are cut off
func TestGet_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(nil, 50*time.Millisecond)
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
}

// TestFetch_DecodesLegacyCharset verifies windows-1251 pages are read as UTF-8
func TestFetch_DecodesLegacyCharset(t *testing.T) {
	body, err := charmap.Windows1251.NewEncoder().String("<html><body><h1>Новости дня</h1></body></html>")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient(nil, time.Second)
	node, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	doc := goquery.NewDocumentFromNode(node)
	assert.Equal(t, "Новости дня", doc.Find("h1").Text())
}

// TestFetch_PropagatesStatusError verifies parse is skipped on HTTP errors
func TestFetch_PropagatesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(nil, time.Second)
	node, err := client.Fetch(context.Background(), server.URL)
	assert.Nil(t, node)

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
}

// TestParse_UTF8WithoutContentType verifies plain UTF-8 documents parse
func TestParse_UTF8WithoutContentType(t *testing.T) {
	node, err := Parse([]byte("<p>Текст статьи</p>"), "")
	require.NoError(t, err)

	doc := goquery.NewDocumentFromNode(node)
	assert.Equal(t, "Текст статьи", doc.Find("p").Text())
}
