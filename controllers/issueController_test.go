package controllers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/VicegerentPrince/Urban-Eye/geo"
	"github.com/VicegerentPrince/Urban-Eye/models"
	"github.com/VicegerentPrince/Urban-Eye/storage"
)

func validForm() issueForm {
	return issueForm{
		Title:       "Broken Light",
		Description: "Street light out on the corner",
		Category:    "infrastructure",
		Priority:    "medium",
		Latitude:    "12.34",
		Longitude:   "56.78",
	}
}

func TestIssueFormValid(t *testing.T) {
	point, ferr := validForm().validate()
	require.Nil(t, ferr)
	assert.Equal(t, geo.Point{Latitude: 12.34, Longitude: 56.78}, point)
}

func TestIssueFormValidationOrder(t *testing.T) {
	// A form failing on several fields reports the earliest one.
	form := validForm()
	form.Title = "   "
	form.Category = "nonsense"
	form.Latitude = "not-a-number"

	_, ferr := form.validate()
	require.NotNil(t, ferr)
	assert.Equal(t, "title", ferr.Field)
}

func TestIssueFormRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*issueForm)
		field  string
	}{
		{"missing title", func(f *issueForm) { f.Title = "" }, "title"},
		{"missing description", func(f *issueForm) { f.Description = " " }, "description"},
		{"unknown category", func(f *issueForm) { f.Category = "potholes" }, "category"},
		{"unknown priority", func(f *issueForm) { f.Priority = "urgent" }, "priority"},
		{"non-numeric latitude", func(f *issueForm) { f.Latitude = "abc" }, "latitude"},
		{"non-numeric longitude", func(f *issueForm) { f.Longitude = "" }, "longitude"},
		{"latitude out of range", func(f *issueForm) { f.Latitude = "90.5" }, "coordinates"},
		{"longitude out of range", func(f *issueForm) { f.Longitude = "-180.5" }, "coordinates"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			tc.mutate(&form)
			_, ferr := form.validate()
			require.NotNil(t, ferr)
			assert.Equal(t, tc.field, ferr.Field)
		})
	}
}

func TestIssueFormAcceptsBoundaryCoordinates(t *testing.T) {
	form := validForm()
	form.Latitude = "-90"
	form.Longitude = "180"

	point, ferr := form.validate()
	require.Nil(t, ferr)
	assert.True(t, point.Valid())
}

func storedAttachment(t *testing.T, store *storage.Store, name string) []models.Attachment {
	t.Helper()
	path := filepath.Join(store.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media bytes"), 0o644))
	return []models.Attachment{{Kind: models.Photo, URI: "/uploads/" + name}}
}

func TestWriteWithMediaRemovesFilesOnFailure(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	attachments := storedAttachment(t, store, "picture.png")

	writeErr := errors.New("write lost")
	err = writeWithMedia(store, attachments, func() error { return writeErr })
	assert.ErrorIs(t, err, writeErr)

	_, statErr := os.Stat(filepath.Join(store.Dir(), "picture.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteWithMediaKeepsFilesOnSuccess(t *testing.T) {
	store, err := storage.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	attachments := storedAttachment(t, store, "picture.png")

	require.NoError(t, writeWithMedia(store, attachments, func() error { return nil }))

	_, statErr := os.Stat(filepath.Join(store.Dir(), "picture.png"))
	assert.NoError(t, statErr)
}

func TestAnnotateDistances(t *testing.T) {
	origin := geo.Point{Latitude: 0, Longitude: 0}
	pins := []issuePin{
		{Coordinates: models.NewGeoPoint(origin)},
		{Coordinates: models.NewGeoPoint(geo.Point{Latitude: 1, Longitude: 0})},
	}

	annotateDistances(origin, pins)

	assert.Zero(t, pins[0].DistanceMeters)
	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, pins[1].DistanceMeters, 10)
}

func TestIssueListEntrySummaries(t *testing.T) {
	reporterID := primitive.NewObjectID()
	issue := models.Issue{
		ID:       primitive.NewObjectID(),
		Title:    "Broken Light",
		Status:   models.Pending,
		Reporter: reporterID,
	}
	reporter := gin.H{"id": reporterID, "name": "Asha"}

	entry := issueListEntry(issue, reporter, nil)
	assert.Equal(t, reporter, entry["reporter"])
	assert.NotContains(t, entry, "assignee")
	assert.Equal(t, issue.Title, entry["title"])

	assignee := gin.H{"id": primitive.NewObjectID(), "name": "Ravi"}
	entry = issueListEntry(issue, reporter, assignee)
	assert.Equal(t, assignee, entry["assignee"])
}
