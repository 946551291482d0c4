package gallery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/gallery/internal/catalog"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtworkByIDOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/artworks/1404":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": {"id": 1404, "title": "Wheat Stacks", "image_id": "02cd860f-126b-5e55-080c-cf9c507b8dfb"}}`))
		case "/api/v1/artworks/500":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": {"id": "five hundred"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	repo := NewDataRepository(catalog.NewClient(server.URL, "", time.Second))

	tests := []struct {
		name      string
		id        int
		wantID    int
		wantError bool
	}{
		{name: "well-formed body", id: 1404, wantID: 1404},
		{name: "not found", id: 404, wantError: true},
		{name: "malformed body", id: 500, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := repo.ArtworkByID(context.Background(), tt.id)
			switch r := result.(type) {
			case models.Success[models.Artwork]:
				require.False(t, tt.wantError, "expected failure, got success")
				assert.Equal(t, tt.wantID, r.Data.ID)
			case models.Failure[models.Artwork]:
				require.True(t, tt.wantError, "unexpected failure: %s", r.Message)
				assert.NotEmpty(t, r.Message)
			default:
				t.Fatalf("unexpected result type %T", result)
			}
		})
	}
}

func TestArtworkByIDNormalizesFailures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
		id   int
	}{
		{
			name: "transport error",
			api:  &fakeAPI{err: errors.New("dial tcp: lookup api.artic.edu: no such host")},
			id:   1,
		},
		{
			name: "empty payload",
			api:  newFakeAPI(3),
			id:   42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewDataRepository(tt.api)
			result := repo.ArtworkByID(context.Background(), tt.id)

			failure, ok := result.(models.Failure[models.Artwork])
			require.True(t, ok, "expected failure, got %T", result)
			assert.NotEmpty(t, failure.Message)
		})
	}
}

func TestArtworkByIDSuccess(t *testing.T) {
	repo := NewDataRepository(newFakeAPI(3))

	result := repo.ArtworkByID(context.Background(), 2)

	success, ok := result.(models.Success[models.Artwork])
	require.True(t, ok, "expected success, got %T", result)
	assert.Equal(t, 2, success.Data.ID)
}
