package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageServiceClient talks to the file-storage service. Uploaded import
// files are kept there so sessions can be reprocessed later without
// re-uploading.
type StorageServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// UploadResponse from storage-service
type UploadResponse struct {
	Success bool    `json:"success"`
	Ref     string  `json:"ref"`
	Message *string `json:"message,omitempty"`
}

// NewStorageServiceClient creates a new storage client
func NewStorageServiceClient() *StorageServiceClient {
	baseURL := os.Getenv("STORAGE_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://storage-service:8080"
	}

	return &StorageServiceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload stores the raw file bytes and returns an opaque reference
func (c *StorageServiceClient) Upload(ctx context.Context, tenantID, fileName string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/api/v1/files", c.baseURL)

	payload, err := json.Marshal(map[string]any{
		"fileName": fileName,
		"content":  data,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[StorageClient] Error uploading file '%s': %v", fileName, err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to upload file: %d - %s", resp.StatusCode, string(body))
	}

	var result UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	log.Printf("[StorageClient] Uploaded '%s' for tenant %s (ref: %s)", fileName, tenantID, result.Ref)
	return result.Ref, nil
}

// Download fetches the stored bytes by reference
func (c *StorageServiceClient) Download(ctx context.Context, ref string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/files/%s", c.baseURL, ref)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[StorageClient] Error downloading file ref '%s': %v", ref, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download file: %d - %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// LocalStorageClient keeps uploaded files on the local filesystem. Used in
// development when no storage service is available.
type LocalStorageClient struct {
	dir string
}

// NewLocalStorageClient creates a filesystem-backed storage client rooted
// at IMPORT_STORAGE_DIR
func NewLocalStorageClient() (*LocalStorageClient, error) {
	dir := os.Getenv("IMPORT_STORAGE_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "product-imports")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorageClient{dir: dir}, nil
}

func (c *LocalStorageClient) Upload(ctx context.Context, tenantID, fileName string, data []byte) (string, error) {
	ref := fmt.Sprintf("%s_%s%s", tenantID, uuid.New().String(), filepath.Ext(fileName))
	if err := os.WriteFile(filepath.Join(c.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return ref, nil
}

func (c *LocalStorageClient) Download(ctx context.Context, ref string) ([]byte, error) {
	// Refs are generated server-side, but never trust them as paths
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("invalid file ref")
	}
	return os.ReadFile(filepath.Join(c.dir, ref))
}
