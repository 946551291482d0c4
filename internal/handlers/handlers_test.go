package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numberedAPI returns artworks 0..corpus-1 for any query. Looking up id 404
// fails the way a missing artwork does upstream.
type numberedAPI struct {
	corpus int
}

func (a numberedAPI) Search(ctx context.Context, query string, page, limit int) (*models.ArtworkListResponse, error) {
	var data []models.Artwork
	for i := (page - 1) * limit; i < page*limit && i < a.corpus; i++ {
		imageID := "img-" + query
		data = append(data, models.Artwork{ID: i, ImageID: &imageID})
	}
	return &models.ArtworkListResponse{Data: data}, nil
}

func (a numberedAPI) Artwork(ctx context.Context, id int) (*models.ArtworkResponse, error) {
	if id == 404 {
		return nil, errors.New("not found")
	}
	title := "Nighthawks"
	imageID := "831a05de-d3f6-f4fa-a460-23008dd58dda"
	return &models.ArtworkResponse{Data: &models.Artwork{ID: id, Title: &title, ImageID: &imageID}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *savedstate.Store) {
	t.Helper()

	stateStore := savedstate.NewStore(filepath.Join(t.TempDir(), "state.yaml"))
	saved := savedstate.New(map[string]any{viewmodel.LastSearchQueryKey: "monet"})
	h := New(gallery.NewDataRepository(numberedAPI{corpus: 100}), saved, stateStore)

	server := httptest.NewServer(h.Routes())
	t.Cleanup(func() {
		server.Close()
		h.Close()
	})
	return server, stateStore
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthcheck(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/healthcheck", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionFlow(t *testing.T) {
	server, stateStore := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decode[SessionResponse](t, resp)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "monet", session.Query)

	sessionURL := server.URL + "/api/sessions/" + session.ID

	resp = doRequest(t, http.MethodGet, server.URL+"/api/sessions", "")
	list := decode[[]SessionResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, session.ID, list[0].ID)

	resp = doRequest(t, http.MethodGet, sessionURL+"/artworks?index=0", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	artworks := decode[ArtworksResponse](t, resp)
	assert.Equal(t, "monet", artworks.Query)
	assert.Len(t, artworks.Items, 20)
	assert.Equal(t, models.ThumbnailURL("img-monet"), artworks.Items[0].ThumbnailURL)
	assert.Equal(t, "Untitled", artworks.Items[0].Label)
	assert.Equal(t, "not_loading", artworks.Refresh.Status)
	assert.False(t, artworks.CanRetry)

	resp = doRequest(t, http.MethodPost, sessionURL+"/search", `{"query": "degas"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degas", decode[SessionResponse](t, resp).Query)

	resp = doRequest(t, http.MethodGet, sessionURL+"/artworks?index=50", "")
	artworks = decode[ArtworksResponse](t, resp)
	assert.Equal(t, "degas", artworks.Query)
	assert.Len(t, artworks.Items, 70)
	assert.Equal(t, models.ThumbnailURL("img-degas"), artworks.Items[0].ThumbnailURL)

	resp = doRequest(t, http.MethodPost, sessionURL+"/retry", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, sessionURL, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, sessionURL, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the last query survives for the next session
	saved, err := stateStore.Load()
	require.NoError(t, err)
	query, _ := saved.String(viewmodel.LastSearchQueryKey)
	assert.Equal(t, "degas", query)
}

func TestSessionErrors(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/sessions/missing/artworks", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, server.URL+"/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/sessions", "")
	session := decode[SessionResponse](t, resp)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/sessions/"+session.ID+"/artworks?index=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/sessions/"+session.ID+"/search", "{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArtworkDetail(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("loaded", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/artworks/111628", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		detail := decode[ArtworkDetailResponse](t, resp)
		assert.Equal(t, "loaded", detail.Status)
		require.NotNil(t, detail.Artwork)
		assert.Equal(t, 111628, detail.Artwork.ID)
		assert.Equal(t, "Nighthawks", detail.Label)
		assert.Equal(t, models.FullImageURL("831a05de-d3f6-f4fa-a460-23008dd58dda"), detail.ImageURL)
	})

	t.Run("upstream failure", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/artworks/404", "")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "failed", decode[ArtworkDetailResponse](t, resp).Status)
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, id := range []string{"abc", "-3"} {
			resp := doRequest(t, http.MethodGet, server.URL+"/api/artworks/"+id, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, id)
		}
	})
}

func TestMetrics(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doRequest(t, http.MethodGet, server.URL+"/api/artworks/404", "")

	resp = doRequest(t, http.MethodGet, server.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "gallery_sessions_active 1")
	assert.Contains(t, text, `gallery_artwork_loads_total{outcome="failed"} 1`)
	assert.Contains(t, text, `gallery_http_requests_total{method="POST",route="/api/sessions`)
	assert.Contains(t, text, `status="201"`)
}
