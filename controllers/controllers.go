package controllers

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/VicegerentPrince/Urban-Eye/config"
	"github.com/VicegerentPrince/Urban-Eye/models"
	"github.com/VicegerentPrince/Urban-Eye/storage"
)

var (
	cfg             *config.Config
	mediaStore      *storage.Store
	issueCollection *mongo.Collection
	userCollection  *mongo.Collection
)

// Init wires the controllers to their collaborators. Must be called after
// the database connection is established and before routes are served.
func Init(c *config.Config, store *storage.Store) error {
	cfg = c
	mediaStore = store
	issueCollection = config.GetCollection("issues")
	userCollection = config.GetCollection("users")

	return models.EnsureIssueIndexes(issueCollection)
}
