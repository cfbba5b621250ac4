package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/pkg/config"
)

func TestHTTPCompleterDisabledWithoutEndpoint(t *testing.T) {
	assert.Nil(t, NewHTTPCompleter(config.GeneratorConfig{}))
}

func TestHTTPCompleterForwardsPrompt(t *testing.T) {
	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"slots\":[]}"}}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	completer := NewHTTPCompleter(config.GeneratorConfig{
		Endpoint: server.URL,
		APIKey:   "sk-test",
		Model:    "gpt-4o-mini",
		Timeout:  5 * time.Second,
	})
	require.NotNil(t, completer)

	out, err := completer.Complete(context.Background(), "build a timetable")
	require.NoError(t, err)
	assert.Equal(t, `{"slots":[]}`, out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotBody, `"model":"gpt-4o-mini"`)
	assert.Contains(t, gotBody, "build a timetable")
}

func TestHTTPCompleterSurfacesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"rate limited"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	completer := NewHTTPCompleter(config.GeneratorConfig{Endpoint: server.URL})
	_, err := completer.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestHTTPCompleterNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	completer := NewHTTPCompleter(config.GeneratorConfig{Endpoint: server.URL})
	_, err := completer.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPCompleterEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`)) //nolint:errcheck
	}))
	defer server.Close()

	completer := NewHTTPCompleter(config.GeneratorConfig{Endpoint: server.URL})
	_, err := completer.Complete(context.Background(), "x")
	require.Error(t, err)
}
