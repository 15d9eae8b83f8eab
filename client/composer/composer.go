// Package composer accumulates a civic issue report and submits it as one
// multipart request. All user input survives a failed submission, so a retry
// never requires re-entry.
package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"github.com/VicegerentPrince/Urban-Eye/client/capture"
	"github.com/VicegerentPrince/Urban-Eye/geo"
)

var (
	// ErrIncompleteReport means a required field is missing; no network
	// call was made.
	ErrIncompleteReport = errors.New("report is missing required fields")
	// ErrSubmitInFlight means a submission is already running on this
	// composer.
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

// SubmitResult is the server's view of the created issue.
type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Composer builds one report submission.
type Composer struct {
	Title               string
	Description         string
	Category            string
	Priority            string
	LocationDescription string

	endpoint string
	token    string
	client   *http.Client

	mu          sync.Mutex
	coordinate  *geo.Point
	attachments []capture.Artifact
	submitting  bool
}

// New creates a composer posting to the given issues endpoint with a bearer
// token. A nil client falls back to http.DefaultClient.
func New(endpoint, token string, client *http.Client) *Composer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Composer{endpoint: endpoint, token: token, client: client}
}

// SetCoordinate records the chosen location.
func (c *Composer) SetCoordinate(point geo.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coordinate = &point
}

// AttachMedia appends an artifact to the report. Never fails.
func (c *Composer) AttachMedia(artifact capture.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachments = append(c.attachments, artifact)
}

// RemoveMedia removes the attachment at index, shifting later entries down.
// Out-of-range indexes are ignored.
func (c *Composer) RemoveMedia(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.attachments) {
		return
	}
	c.attachments = append(c.attachments[:index], c.attachments[index+1:]...)
}

// Attachments returns a copy of the current attachment list.
func (c *Composer) Attachments() []capture.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capture.Artifact{}, c.attachments...)
}

// missing lists the required fields that are still empty.
func (c *Composer) missing() []string {
	var fields []string
	if c.Title == "" {
		fields = append(fields, "title")
	}
	if c.Description == "" {
		fields = append(fields, "description")
	}
	if c.Category == "" {
		fields = append(fields, "category")
	}
	if c.Priority == "" {
		fields = append(fields, "priority")
	}
	if c.coordinate == nil {
		fields = append(fields, "coordinates")
	}
	return fields
}

// Submit validates completeness, serializes the report and every attachment
// into a single multipart request and posts it. At most one submission runs
// at a time. On any failure the composer keeps all fields and attachments so
// the caller can retry; on success it is cleared.
func (c *Composer) Submit(ctx context.Context) (*SubmitResult, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if fields := c.missing(); len(fields) > 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrIncompleteReport, fields)
	}
	c.submitting = true
	point := *c.coordinate
	attachments := append([]capture.Artifact{}, c.attachments...)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	body, contentType, err := c.encode(point, attachments)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("submission rejected with status %d: %s", resp.StatusCode, payload)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.reset()
	return &result, nil
}

// encode builds the multipart body: plain fields plus one part per
// attachment, photos under "images" and videos under "videos".
func (c *Composer) encode(point geo.Point, attachments []capture.Artifact) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       c.Title,
		"description": c.Description,
		"category":    c.Category,
		"priority":    c.Priority,
		"latitude":    strconv.FormatFloat(point.Latitude, 'f', -1, 64),
		"longitude":   strconv.FormatFloat(point.Longitude, 'f', -1, 64),
	}
	if c.LocationDescription != "" {
		fields["locationDescription"] = c.LocationDescription
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	for _, artifact := range attachments {
		field := "images"
		if artifact.Kind == capture.Video {
			field = "videos"
		}
		part, err := w.CreateFormFile(field, artifact.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(artifact.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// reset clears the composer after a successful submission.
func (c *Composer) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Title = ""
	c.Description = ""
	c.Category = ""
	c.Priority = ""
	c.LocationDescription = ""
	c.coordinate = nil
	c.attachments = nil
}
