package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// Flow moves a file into object storage without proxying bytes through the
// app server: fetch a signed URL, PUT the bytes straight to storage, then
// record the public URL against the profile. The three steps are strictly
// sequential; a failure before the final record leaves no trace in either
// store, a failure at the record step leaves an orphaned object behind.
type Flow struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	loading bool
}

func NewFlow(baseURL string) *Flow {
	return &Flow{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Loading reports whether an upload is in flight; callers disable
// re-submission while true.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Upload runs the whole flow and returns the recorded public URL. Each run
// generates a fresh identifier, so re-running for the same document type
// stores a second object and overwrites the URL field; the previous object
// is never deleted.
func (f *Flow) Upload(ctx context.Context, userID string, doc profile.DocumentType, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return "", fmt.Errorf("upload already in progress")
	}
	f.loading = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
	}()

	target, err := f.requestUploadURL(ctx, userID, doc, contentType)
	if err != nil {
		return "", err
	}

	if err := f.putObject(ctx, target.UploadURL, contentType, data); err != nil {
		return "", err
	}

	if err := f.recordDocument(ctx, userID, doc, target.PublicURL); err != nil {
		return "", err
	}
	return target.PublicURL, nil
}

func (f *Flow) requestUploadURL(ctx context.Context, userID string, doc profile.DocumentType, contentType string) (*uploadURLResponse, error) {
	body, err := json.Marshal(uploadURLRequest{
		UserID:       userID,
		DocumentType: string(doc),
		UUID:         uuid.New().String(),
		Filetype:     contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding upload-url request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/api/get-upload-url", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting upload URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload URL endpoint returned HTTP %d", resp.StatusCode)
	}

	var out uploadURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding upload URL response: %w", err)
	}
	return &out, nil
}

func (f *Flow) putObject(ctx context.Context, signedURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating put request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (f *Flow) recordDocument(ctx context.Context, userID string, doc profile.DocumentType, publicURL string) error {
	body, err := json.Marshal(recordRequest{
		UserID:       userID,
		DocumentType: string(doc),
		PublicURL:    publicURL,
	})
	if err != nil {
		return fmt.Errorf("encoding record request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/api/upload-document", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recording document: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding record response: %w", err)
	}
	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("recording document: %s", out.Error)
		}
		return fmt.Errorf("record endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
