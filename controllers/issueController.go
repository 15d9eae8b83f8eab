package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/VicegerentPrince/Urban-Eye/config"
	"github.com/VicegerentPrince/Urban-Eye/geo"
	"github.com/VicegerentPrince/Urban-Eye/middlewares"
	"github.com/VicegerentPrince/Urban-Eye/models"
	"github.com/VicegerentPrince/Urban-Eye/policy"
	"github.com/VicegerentPrince/Urban-Eye/storage"
)

// issueForm carries the multipart fields of a create request.
type issueForm struct {
	Title               string
	Description         string
	Category            string
	Priority            string
	Latitude            string
	Longitude           string
	LocationDescription string
}

// fieldError names the field that failed validation so clients can surface it.
type fieldError struct {
	Field   string
	Message string
}

// validate checks required text, enum membership and the coordinate, in that
// order, and returns the parsed coordinate on success.
func (f issueForm) validate() (geo.Point, *fieldError) {
	if strings.TrimSpace(f.Title) == "" {
		return geo.Point{}, &fieldError{"title", "Title is required"}
	}
	if strings.TrimSpace(f.Description) == "" {
		return geo.Point{}, &fieldError{"description", "Description is required"}
	}
	if !models.ValidCategory(f.Category) {
		return geo.Point{}, &fieldError{"category", "Invalid category"}
	}
	if !models.ValidPriority(f.Priority) {
		return geo.Point{}, &fieldError{"priority", "Invalid priority"}
	}

	lat, err := strconv.ParseFloat(f.Latitude, 64)
	if err != nil {
		return geo.Point{}, &fieldError{"latitude", "Latitude must be a number"}
	}
	lng, err := strconv.ParseFloat(f.Longitude, 64)
	if err != nil {
		return geo.Point{}, &fieldError{"longitude", "Longitude must be a number"}
	}

	point := geo.Point{Latitude: lat, Longitude: lng}
	if !point.Valid() {
		return geo.Point{}, &fieldError{"coordinates", "Coordinates are out of range"}
	}

	return point, nil
}

// formFiles collects the uploaded media parts of a multipart request.
func formFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File["images"]...)
	return append(files, form.File["videos"]...)
}

// mediaError maps storage failures onto the HTTP error taxonomy.
func mediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrUnsupportedMedia):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		zap.L().Error("Media storage failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store media"})
	}
}

// writeWithMedia runs a collection write that references freshly stored
// attachments and removes them again when the write fails, so a dead write
// never strands media on disk.
func writeWithMedia(store *storage.Store, attachments []models.Attachment, write func() error) error {
	if err := write(); err != nil {
		store.Remove(attachments)
		return err
	}
	return nil
}

// CreateIssue handles the creation of a new issue from a multipart submission
func CreateIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	form := issueForm{
		Title:               c.PostForm("title"),
		Description:         c.PostForm("description"),
		Category:            c.PostForm("category"),
		Priority:            c.PostForm("priority"),
		Latitude:            c.PostForm("latitude"),
		Longitude:           c.PostForm("longitude"),
		LocationDescription: c.PostForm("locationDescription"),
	}

	point, ferr := form.validate()
	if ferr != nil {
		zap.L().Info("Issue validation failed",
			zap.String("role", string(ident.Role)),
			zap.String("field", ferr.Field))
		c.JSON(http.StatusBadRequest, gin.H{"error": ferr.Message, "field": ferr.Field})
		return
	}

	files := formFiles(c)
	if len(files) > cfg.MaxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many files", "field": "attachments"})
		return
	}

	// Persist media before the issue record ever references it. SaveAll
	// cleans up after itself, so a failure here leaves no orphan files.
	attachments, err := mediaStore.SaveAll(files)
	if err != nil {
		mediaError(c, err)
		return
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	issue := models.Issue{
		ID:                  primitive.NewObjectID(),
		Title:               strings.TrimSpace(form.Title),
		Description:         strings.TrimSpace(form.Description),
		Category:            models.IssueCategory(form.Category),
		Priority:            models.IssuePriority(form.Priority),
		Status:              models.Pending,
		Coordinates:         models.NewGeoPoint(point),
		LocationDescription: strings.TrimSpace(form.LocationDescription),
		Attachments:         attachments,
		Reporter:            ident.ID,
		Comments:            []models.Comment{},
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writeWithMedia(mediaStore, attachments, func() error {
		_, err := issueCollection.InsertOne(ctx, issue)
		return err
	})
	if err != nil {
		zap.L().Error("Failed to create issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	zap.L().Info("Issue created",
		zap.String("issue", issue.ID.Hex()),
		zap.String("role", string(ident.Role)),
		zap.Int("attachments", len(attachments)))

	c.JSON(http.StatusCreated, issue)
}

// GetIssues handles retrieving issues with status/category/priority filters,
// scoped to the caller's visible set
func GetIssues(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter := policy.ListFilter(ident)

	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "field": "status"})
			return
		}
		filter["status"] = status
	}
	if category := c.Query("category"); category != "" {
		if !models.ValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category", "field": "category"})
			return
		}
		filter["category"] = category
	}
	if priority := c.Query("priority"); priority != "" {
		if !models.ValidPriority(priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority", "field": "priority"})
			return
		}
		filter["priority"] = priority
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	cache := summaryCache{}
	out := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		var assignee gin.H
		if issue.Assignee != nil {
			assignee = cache.get(ctx, *issue.Assignee)
		}
		out = append(out, issueListEntry(issue, cache.get(ctx, issue.Reporter), assignee))
	}

	c.JSON(http.StatusOK, out)
}

// userSummary resolves a user reference into the public fields embedded in
// issue responses.
func userSummary(ctx context.Context, id primitive.ObjectID) gin.H {
	summary := gin.H{"id": id}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err == nil {
		summary["name"] = user.Name
		summary["email"] = user.Email
		summary["role"] = user.Role
		if user.Department != "" {
			summary["department"] = user.Department
		}
	}

	return summary
}

// summaryCache memoizes user summaries within one request so a listing
// resolves each distinct user once.
type summaryCache map[primitive.ObjectID]gin.H

func (sc summaryCache) get(ctx context.Context, id primitive.ObjectID) gin.H {
	if s, ok := sc[id]; ok {
		return s
	}
	s := userSummary(ctx, id)
	sc[id] = s
	return s
}

// issueListEntry shapes one listed issue with its resolved user summaries.
// A nil assignee summary leaves the field out entirely.
func issueListEntry(issue models.Issue, reporter, assignee gin.H) gin.H {
	entry := gin.H{
		"id":                  issue.ID,
		"title":               issue.Title,
		"description":         issue.Description,
		"category":            issue.Category,
		"priority":            issue.Priority,
		"status":              issue.Status,
		"coordinates":         issue.Coordinates,
		"locationDescription": issue.LocationDescription,
		"attachments":         issue.Attachments,
		"reporter":            reporter,
		"comments":            issue.Comments,
		"createdAt":           issue.CreatedAt,
		"updatedAt":           issue.UpdatedAt,
	}
	if assignee != nil {
		entry["assignee"] = assignee
	}
	return entry
}

// commentList resolves comment authors into name/role summaries.
func commentList(ctx context.Context, comments []models.Comment) []gin.H {
	out := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		author := gin.H{"id": comment.Author}
		var user models.User
		if err := userCollection.FindOne(ctx, bson.M{"_id": comment.Author}).Decode(&user); err == nil {
			author["name"] = user.Name
			author["role"] = user.Role
		}
		out = append(out, gin.H{
			"author":    author,
			"text":      comment.Text,
			"createdAt": comment.CreatedAt,
		})
	}
	return out
}

// GetIssue retrieves a single issue with reporter and assignee details
func GetIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	decision := policy.Evaluate(ident, issue)
	if !decision.Visible {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to view this issue"})
		return
	}

	response := gin.H{
		"id":                  issue.ID,
		"title":               issue.Title,
		"description":         issue.Description,
		"category":            issue.Category,
		"priority":            issue.Priority,
		"status":              issue.Status,
		"coordinates":         issue.Coordinates,
		"locationDescription": issue.LocationDescription,
		"attachments":         issue.Attachments,
		"reporter":            userSummary(ctx, issue.Reporter),
		"comments":            commentList(ctx, issue.Comments),
		"createdAt":           issue.CreatedAt,
		"updatedAt":           issue.UpdatedAt,
	}
	if issue.Assignee != nil {
		response["assignee"] = userSummary(ctx, *issue.Assignee)
	}

	c.JSON(http.StatusOK, response)
}

// UpdateIssue applies the caller's mutable fields to an issue. Fields outside
// the caller's mutable set are silently ignored so partial-update clients
// stay simple.
func UpdateIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	decision := policy.Evaluate(ident, issue)
	if !decision.Visible {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to update this issue"})
		return
	}
	// A caller with nothing mutable (a citizen on a resolved issue) gets a
	// hard rejection rather than a silent no-op.
	if len(decision.Mutable) == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Issue is read-only"})
		return
	}

	update := bson.M{}

	if v := strings.TrimSpace(c.PostForm("title")); v != "" && decision.CanMutate(policy.FieldTitle) {
		update["title"] = v
	}
	if v := strings.TrimSpace(c.PostForm("description")); v != "" && decision.CanMutate(policy.FieldDescription) {
		update["description"] = v
	}
	if v := strings.TrimSpace(c.PostForm("locationDescription")); v != "" && decision.CanMutate(policy.FieldLocationDescription) {
		update["locationDescription"] = v
	}

	if v := c.PostForm("category"); v != "" && decision.CanMutate(policy.FieldCategory) {
		if !models.ValidCategory(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category", "field": "category"})
			return
		}
		update["category"] = v
	}
	if v := c.PostForm("priority"); v != "" && decision.CanMutate(policy.FieldPriority) {
		if !models.ValidPriority(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority", "field": "priority"})
			return
		}
		update["priority"] = v
	}

	latS, lngS := c.PostForm("latitude"), c.PostForm("longitude")
	if (latS != "" || lngS != "") && decision.CanMutate(policy.FieldCoordinates) {
		lat, latErr := strconv.ParseFloat(latS, 64)
		lng, lngErr := strconv.ParseFloat(lngS, 64)
		point := geo.Point{Latitude: lat, Longitude: lng}
		if latErr != nil || lngErr != nil || !point.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates are out of range", "field": "coordinates"})
			return
		}
		update["coordinates"] = models.NewGeoPoint(point)
	}

	statusSet := false
	if v := c.PostForm("status"); v != "" && decision.CanMutate(policy.FieldStatus) {
		if !models.ValidStatus(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "field": "status"})
			return
		}
		update["status"] = v
		statusSet = true
	}

	if v := c.PostForm("assignee"); v != "" && decision.CanMutate(policy.FieldAssignee) {
		assigneeID, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID", "field": "assignee"})
			return
		}
		update["assignee"] = assigneeID
		if next, changed := policy.StatusAfterAssign(issue.Status, statusSet); changed {
			update["status"] = next
		}
	}

	var newAttachments []models.Attachment
	if files := formFiles(c); len(files) > 0 && decision.CanMutate(policy.FieldAttachments) {
		if len(files) > cfg.MaxUploadFiles {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Too many files", "field": "attachments"})
			return
		}
		newAttachments, err = mediaStore.SaveAll(files)
		if err != nil {
			mediaError(c, err)
			return
		}
	}

	if len(update) == 0 && len(newAttachments) == 0 {
		c.JSON(http.StatusOK, issue)
		return
	}

	update["updatedAt"] = time.Now()

	change := bson.M{"$set": update}
	if len(newAttachments) > 0 {
		change["$push"] = bson.M{"attachments": bson.M{"$each": newAttachments}}
	}

	err = writeWithMedia(mediaStore, newAttachments, func() error {
		_, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, change)
		return err
	})
	if err != nil {
		zap.L().Error("Failed to update issue",
			zap.String("issue", issueID.Hex()),
			zap.String("role", string(ident.Role)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	var updated models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteIssue removes an issue and its stored media. Admins may delete any
// issue, reporters only their own while still pending.
func DeleteIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	if !policy.CanDelete(ident, issue) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to delete this issue"})
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	mediaStore.Remove(issue.Attachments)

	zap.L().Info("Issue deleted",
		zap.String("issue", issueID.Hex()),
		zap.String("role", string(ident.Role)))

	c.Status(http.StatusNoContent)
}

// AddComment appends a comment to an issue the caller can see
func AddComment(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var input struct {
		Text string `json:"text" binding:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required", "field": "text"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	if !policy.Evaluate(ident, issue).Visible {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized to comment on this issue"})
		return
	}

	comment := models.Comment{
		Author:    ident.ID,
		Text:      input.Text,
		CreatedAt: time.Now(),
	}

	change := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, change); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	var updated models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	c.JSON(http.StatusCreated, commentList(ctx, updated.Comments))
}

// issuePin is the compact projection served to the public map view.
type issuePin struct {
	ID                  primitive.ObjectID   `bson:"_id" json:"id"`
	Title               string               `bson:"title" json:"title"`
	LocationDescription string               `bson:"locationDescription,omitempty" json:"locationDescription,omitempty"`
	Coordinates         models.GeoPoint      `bson:"coordinates" json:"coordinates"`
	Category            models.IssueCategory `bson:"category" json:"category"`
	Priority            models.IssuePriority `bson:"priority" json:"priority"`
	Status              models.IssueStatus   `bson:"status" json:"status"`
	DistanceMeters      float64              `bson:"-" json:"distanceMeters"`
}

// annotateDistances fills in each pin's straight-line distance from the
// queried origin, rounded to whole meters.
func annotateDistances(origin geo.Point, pins []issuePin) {
	for i := range pins {
		pins[i].DistanceMeters = math.Round(geo.Distance(origin, pins[i].Coordinates.Point()))
	}
}

// GetIssuesByLocation returns issues within a radius of a point, nearest
// first, relying on the 2dsphere index rather than a collection scan
func GetIssuesByLocation(c *gin.Context) {
	latS, lngS := c.Query("lat"), c.Query("lng")
	if latS == "" || lngS == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Latitude and longitude are required"})
		return
	}

	lat, latErr := strconv.ParseFloat(latS, 64)
	lng, lngErr := strconv.ParseFloat(lngS, 64)
	point := geo.Point{Latitude: lat, Longitude: lng}
	if latErr != nil || lngErr != nil || !point.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates are out of range", "field": "coordinates"})
		return
	}

	radius := 10000.0 // meters
	if radiusS := c.Query("radius"); radiusS != "" {
		r, err := strconv.ParseFloat(radiusS, 64)
		if err != nil || r < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius", "field": "radius"})
			return
		}
		radius = r
	}

	filter := bson.M{
		"coordinates": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{point.Longitude, point.Latitude},
				},
				"$maxDistance": radius,
			},
		},
	}

	projection := bson.M{
		"title":               1,
		"locationDescription": 1,
		"coordinates":         1,
		"category":            1,
		"priority":            1,
		"status":              1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := issueCollection.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	pins := []issuePin{}
	if err := cursor.All(ctx, &pins); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	annotateDistances(point, pins)

	c.JSON(http.StatusOK, pins)
}

// groupCounts runs a $group aggregation over the caller-visible set.
func groupCounts(ctx context.Context, filter bson.M, field string) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$match": filter},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
	}

	cursor, err := issueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// GetIssueStats returns aggregate counts over the caller-visible set, so a
// citizen's stats cover only their own reports
func GetIssueStats(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Officials and admins share one visible set; citizens get their own.
	scope := "all"
	if ident.Role == models.Citizen {
		scope = ident.ID.Hex()
	}
	cacheKey := "issue-stats:" + scope

	if config.RedisClient != nil {
		if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	filter := policy.ListFilter(ident)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	byStatus, err := groupCounts(ctx, filter, "status")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate issues"})
		return
	}
	byCategory, err := groupCounts(ctx, filter, "category")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate issues"})
		return
	}
	byPriority, err := groupCounts(ctx, filter, "priority")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate issues"})
		return
	}

	stats := gin.H{
		"total": total,
		"byStatus": gin.H{
			"pending":    byStatus[string(models.Pending)],
			"inProgress": byStatus[string(models.InProgress)],
			"resolved":   byStatus[string(models.Resolved)],
			"active":     byStatus[string(models.Active)],
		},
		"byCategory": byCategory,
		"byPriority": byPriority,
	}

	if config.RedisClient != nil {
		if body, err := json.Marshal(stats); err == nil {
			config.RedisClient.Set(config.Ctx, cacheKey, body, 30*time.Second)
		}
	}

	c.JSON(http.StatusOK, stats)
}
