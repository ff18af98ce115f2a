// Package sharepoint is the document store holding the persistent export
// spreadsheets. The raw file operations go through the SharePoint REST
// API; the tabular operations (append, format and sort) are layered on
// top as download-edit-upload passes over the xlsx bytes.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FileInfo describes one file in a folder listing.
type FileInfo struct {
	Name string `json:"Name"`
}

// Client talks to one SharePoint site.
type Client struct {
	http    *http.Client
	siteURL string
	token   string
}

// NewClient creates a client for the given site. The token is a bearer
// token obtained out-of-band (app registration).
func NewClient(siteURL, token string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		siteURL: strings.TrimRight(siteURL, "/"),
		token:   token,
	}
}

// ListFiles lists the files in a folder.
func (c *Client) ListFiles(ctx context.Context, folder string) ([]FileInfo, error) {
	endpoint := fmt.Sprintf("%s/_api/web/GetFolderByServerRelativeUrl('%s')/Files",
		c.siteURL, escapePath(folder))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("list files failed: %w", err)
	}

	var listing struct {
		Value []FileInfo `json:"value"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode file listing failed: %w", err)
	}

	return listing.Value, nil
}

// FetchFileBytes downloads one file.
func (c *Client) FetchFileBytes(ctx context.Context, folder, name string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/_api/web/GetFileByServerRelativeUrl('%s/%s')/$value",
		c.siteURL, escapePath(folder), escapePath(name))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s failed: %w", name, err)
	}
	return body, nil
}

// UploadBytes uploads data as a new file, overwriting any existing one.
func (c *Client) UploadBytes(ctx context.Context, folder, name string, data []byte) error {
	endpoint := fmt.Sprintf("%s/_api/web/GetFolderByServerRelativeUrl('%s')/Files/add(url='%s',overwrite=true)",
		c.siteURL, escapePath(folder), escapePath(name))

	if _, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload file %s failed: %w", name, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json;odata=nometadata")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sharepoint returned %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	return respBody, nil
}

// escapePath doubles single quotes for the quoted REST path arguments.
func escapePath(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
