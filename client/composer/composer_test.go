package composer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VicegerentPrince/Urban-Eye/client/capture"
	"github.com/VicegerentPrince/Urban-Eye/geo"
)

func filledComposer(endpoint string) *Composer {
	c := New(endpoint, "test-token", nil)
	c.Title = "Broken Light"
	c.Description = "Street light out on the corner"
	c.Category = "infrastructure"
	c.Priority = "medium"
	c.SetCoordinate(geo.Point{Latitude: 12.34, Longitude: 56.78})
	return c
}

func photoArtifact(name string) capture.Artifact {
	return capture.Artifact{Kind: capture.Photo, Name: name, Data: []byte("png-bytes")}
}

func TestAttachAndRemoveMedia(t *testing.T) {
	c := New("http://unused", "", nil)

	c.AttachMedia(photoArtifact("a.png"))
	c.AttachMedia(photoArtifact("b.png"))
	c.AttachMedia(photoArtifact("c.png"))

	c.RemoveMedia(1)
	atts := c.Attachments()
	require.Len(t, atts, 2)
	assert.Equal(t, "a.png", atts[0].Name)
	assert.Equal(t, "c.png", atts[1].Name)

	// Out-of-range removals are ignored.
	c.RemoveMedia(-1)
	c.RemoveMedia(99)
	assert.Len(t, c.Attachments(), 2)
}

func TestSubmitIncompleteMakesNoRequest(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	c.Title = "only a title"

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteReport)
	assert.Zero(t, requests)
}

func TestSubmitSendsMultipartAndClears(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	var gotImages, gotVideos int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}
		gotImages = len(r.MultipartForm.File["images"])
		gotVideos = len(r.MultipartForm.File["videos"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "abc123", "status": "pending"})
	}))
	defer srv.Close()

	c := filledComposer(srv.URL)
	c.AttachMedia(photoArtifact("a.png"))
	c.AttachMedia(capture.Artifact{Kind: capture.Video, Name: "clip.mp4", Data: []byte("mp4")})

	result, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.ID)
	assert.Equal(t, "pending", result.Status)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "Broken Light", gotFields["title"])
	assert.Equal(t, "infrastructure", gotFields["category"])
	assert.Equal(t, "medium", gotFields["priority"])
	assert.Equal(t, "12.34", gotFields["latitude"])
	assert.Equal(t, "56.78", gotFields["longitude"])
	assert.Equal(t, 1, gotImages)
	assert.Equal(t, 1, gotVideos)

	// Success clears the composer.
	assert.Empty(t, c.Title)
	assert.Empty(t, c.Attachments())
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteReport)
}

func TestSubmitFailurePreservesState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := filledComposer(srv.URL)
	c.AttachMedia(photoArtifact("a.png"))

	_, err := c.Submit(context.Background())
	require.Error(t, err)

	// Everything the user entered is still there.
	assert.Equal(t, "Broken Light", c.Title)
	assert.Len(t, c.Attachments(), 1)

	// And the composer accepts a retry.
	_, err = c.Submit(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSubmitInFlight)
}

func TestSubmitNetworkErrorPreservesState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := filledComposer(srv.URL)
	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Broken Light", c.Title)

	selectedKept := c.missing()
	assert.Empty(t, selectedKept, "all required fields survive the failure")
}

func TestSubmitAtMostOneInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "x", "status": "pending"})
	}))
	defer srv.Close()

	c := filledComposer(srv.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Submit(context.Background())
		assert.NoError(t, err)
	}()

	// Wait until the first submission is actually in flight.
	<-started
	_, second := c.Submit(context.Background())
	assert.ErrorIs(t, second, ErrSubmitInFlight)

	close(release)
	wg.Wait()
}
