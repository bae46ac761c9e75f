package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "ask_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAPIClient_Get_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": ["a.txt"]}`))
	}))
	defer srv.Close()

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)

	resp, err := api.Get("/documents")
	require.NoError(t, err)

	assert.Equal(t, "Bearer "+testAPIKey, gotAuth)

	var filenames []string
	require.NoError(t, json.Unmarshal(resp.Data, &filenames))
	assert.Equal(t, []string{"a.txt"}, filenames)
}

func TestAPIClient_Post_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "question is required"}`))
	}))
	defer srv.Close()

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)

	_, err = api.Post("/chat", map[string]string{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "question is required", apiErr.Message)
}

func TestAPIClient_Post_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)

	_, err = api.Post("/chat", map[string]string{"question": "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad gateway")
}

func TestAPIClient_PostMultipart_SendsFiles(t *testing.T) {
	tmpDir := t.TempDir()
	fileA := filepath.Join(tmpDir, "a.txt")
	fileB := filepath.Join(tmpDir, "b.txt")
	require.NoError(t, os.WriteFile(fileA, []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(fileB, []byte("beta"), 0644))

	var gotFilenames []string
	var gotContents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for _, header := range r.MultipartForm.File["files"] {
			gotFilenames = append(gotFilenames, header.Filename)
			f, err := header.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(f)
			f.Close()
			require.NoError(t, err)
			gotContents = append(gotContents, string(data))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"ingested": ["a.txt", "b.txt"]}}`))
	}))
	defer srv.Close()

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)

	resp, err := api.PostMultipart("/documents", "files", []string{fileA, fileB})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, []string{"a.txt", "b.txt"}, gotFilenames)
	assert.Equal(t, []string{"alpha", "beta"}, gotContents)
}

func TestAPIClient_PostMultipart_MissingFile(t *testing.T) {
	api, err := NewAPIClientWithConfig(testAPIKey, "http://localhost:1")
	require.NoError(t, err)

	_, err = api.PostMultipart("/documents", "files", []string{"/nonexistent/file.txt"})
	assert.Error(t, err)
}

func TestAPIClient_DownloadFile(t *testing.T) {
	content := []byte("document body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, api.DownloadFile(srv.URL+"/file", outputPath))

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestProgressReader_ReportsProgress(t *testing.T) {
	data := []byte("hello world this is test data")
	reader := bytes.NewReader(data)

	var progressCalls []struct{ current, total int64 }
	pr := &progressReader{
		reader: reader,
		total:  int64(len(data)),
		onProgress: func(current, total int64) {
			progressCalls = append(progressCalls, struct{ current, total int64 }{current, total})
		},
	}

	result, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, result)

	// Progress should have been called at least once
	assert.NotEmpty(t, progressCalls)

	// Final progress should equal total
	lastCall := progressCalls[len(progressCalls)-1]
	assert.Equal(t, int64(len(data)), lastCall.current)
	assert.Equal(t, int64(len(data)), lastCall.total)
}

func TestProgressReader_NilCallback(t *testing.T) {
	data := []byte("hello world")
	reader := bytes.NewReader(data)

	pr := &progressReader{
		reader:     reader,
		total:      int64(len(data)),
		onProgress: nil, // No callback
	}

	result, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, result)
}
