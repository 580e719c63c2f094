package betterfetch_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"

	betterfetch "github.com/hyusap/better-fetch"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestFetchHTMLStripsLinksAndNav(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><nav><a href="/home">Home</a></nav><p>Hello <a href="https://x.com">link</a></p></body></html>`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: false,
	})
	is.True(!result.IsError)
	is.True(strings.Contains(result.Text, "Hello link"))
	is.True(!strings.Contains(result.Text, "Home"))             // nav content removed
	is.True(!strings.Contains(result.Text, "](https://x.com)")) // link syntax rewritten to its label
}

func TestFetchHTMLKeepsLinksByDefault(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<p>see <a href="https://example.com/docs">the docs</a></p>`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(!result.IsError)
	is.True(strings.Contains(result.Text, "[the docs](https://example.com/docs)"))
}

func TestFetchJSONPassthrough(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"a":1}`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(!result.IsError)
	is.Equal(result.Text, `{"a":1}`)
}

func TestFetchJSONTruncated(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"a":1}`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
		MaxLength:    3,
	})
	is.True(!result.IsError)
	is.Equal(result.Text, "{\"a\n\n[Content truncated...]")
}

func TestFetchMissingContentTypePassthrough(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress the content-type header entirely, sniffing included.
		w.Header()["Content-Type"] = nil
		w.Write([]byte(`<p>not converted</p>`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(!result.IsError)
	is.Equal(result.Text, `<p>not converted</p>`)
}

func TestFetchServiceUnavailable(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(result.IsError)
	is.Equal(result.Text, "Error fetching URL: 503 Service Unavailable")
}

func TestFetchNotFound(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<html><body>gone</body></html>`))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(result.IsError)
	is.Equal(result.Text, "Error fetching URL: 404 Not Found")
	is.True(!strings.Contains(result.Text, "gone")) // body never converted
}

func TestFetchNetworkError(t *testing.T) {
	is := is.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	server.Close()

	pipeline := betterfetch.New(discard(), client)
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(result.IsError)
	is.True(strings.HasPrefix(result.Text, "Error fetching URL: "))
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	is := is.New(t)
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL,
		IncludeLinks: true,
	})
	is.True(!result.IsError)
	is.True(strings.Contains(got.Get("User-Agent"), "Mozilla/5.0"))
	is.True(strings.Contains(got.Get("Accept"), "text/html"))
	is.Equal(got.Get("Accept-Language"), "en-US,en;q=0.5")
	is.Equal(got.Get("Cache-Control"), "no-cache")
}

func TestFetchFollowsRedirects(t *testing.T) {
	is := is.New(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("landed"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline := betterfetch.New(discard(), server.Client())
	result := pipeline.Fetch(context.Background(), betterfetch.Request{
		URL:          server.URL + "/old",
		IncludeLinks: true,
	})
	is.True(!result.IsError)
	is.Equal(result.Text, "landed")
}
