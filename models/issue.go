package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/VicegerentPrince/Urban-Eye/geo"
)

// IssueCategory enum
type IssueCategory string

const (
	Infrastructure IssueCategory = "infrastructure"
	Water          IssueCategory = "water"
	Sanitation     IssueCategory = "sanitation"
	Electricity    IssueCategory = "electricity"
	Roads          IssueCategory = "roads"
	Disaster       IssueCategory = "disaster"
	Other          IssueCategory = "other"
)

// IssuePriority enum
type IssuePriority string

const (
	Low       IssuePriority = "low"
	Medium    IssuePriority = "medium"
	High      IssuePriority = "high"
	Emergency IssuePriority = "emergency"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in-progress"
	Resolved   IssueStatus = "resolved"
	Active     IssueStatus = "active"
)

// ValidCategory reports whether s is a member of the category enum.
func ValidCategory(s string) bool {
	switch IssueCategory(s) {
	case Infrastructure, Water, Sanitation, Electricity, Roads, Disaster, Other:
		return true
	}
	return false
}

// ValidPriority reports whether s is a member of the priority enum.
func ValidPriority(s string) bool {
	switch IssuePriority(s) {
	case Low, Medium, High, Emergency:
		return true
	}
	return false
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case Pending, InProgress, Resolved, Active:
		return true
	}
	return false
}

// AttachmentKind enum
type AttachmentKind string

const (
	Photo AttachmentKind = "photo"
	Video AttachmentKind = "video"
)

// Attachment references a media file that was successfully persisted.
type Attachment struct {
	Kind AttachmentKind `bson:"kind" json:"kind"`
	URI  string         `bson:"uri" json:"uri"`
}

// Comment is an append-only note on an issue
type Comment struct {
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// GeoPoint is a GeoJSON point as stored in MongoDB. Coordinates are
// [longitude, latitude], the order the 2dsphere index expects.
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a coordinate.
func NewGeoPoint(p geo.Point) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{p.Longitude, p.Latitude}}
}

// Point returns the coordinate in latitude/longitude order.
func (g GeoPoint) Point() geo.Point {
	return geo.Point{Latitude: g.Coordinates[1], Longitude: g.Coordinates[0]}
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title               string              `bson:"title" json:"title"`
	Description         string              `bson:"description" json:"description"`
	Category            IssueCategory       `bson:"category" json:"category"`
	Priority            IssuePriority       `bson:"priority" json:"priority"`
	Status              IssueStatus         `bson:"status" json:"status"`
	Coordinates         GeoPoint            `bson:"coordinates" json:"coordinates"`
	LocationDescription string              `bson:"locationDescription,omitempty" json:"locationDescription,omitempty"`
	Attachments         []Attachment        `bson:"attachments" json:"attachments"`
	Reporter            primitive.ObjectID  `bson:"reporter" json:"reporter"`
	Assignee            *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee,omitempty"`
	Comments            []Comment           `bson:"comments" json:"comments"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EnsureIssueIndexes creates the 2dsphere index backing proximity queries
// and the reporter index backing citizen-scoped listings.
func EnsureIssueIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coordinates", Value: "2dsphere"}},
			Options: options.Index().SetName("coordinates_2dsphere"),
		},
		{
			Keys: bson.D{{Key: "reporter", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
