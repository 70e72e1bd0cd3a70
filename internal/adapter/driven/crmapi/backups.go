package crmapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// ListBackups returns the tenant backups as reported by the server.
func (c *Client) ListBackups(ctx context.Context) ([]model.Backup, error) {
	backups, err := getList[model.Backup](ctx, c, "backups/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	return backups, nil
}

// CreateBackup requests a new backup. The returned status is the server's.
func (c *Client) CreateBackup(ctx context.Context) (*model.Backup, error) {
	var backup model.Backup
	if err := c.doJSON(ctx, http.MethodPost, "backups/", nil, struct{}{}, &backup); err != nil {
		return nil, fmt.Errorf("creating backup: %w", err)
	}
	return &backup, nil
}

// DownloadBackup streams the backup archive into w.
func (c *Client) DownloadBackup(ctx context.Context, id int64, w io.Writer) (int64, error) {
	n, err := c.stream(ctx, fmt.Sprintf("backups/%d/download/", id), nil, w)
	if err != nil {
		return n, fmt.Errorf("downloading backup %d: %w", id, err)
	}
	return n, nil
}

// DeleteBackup removes a backup.
func (c *Client) DeleteBackup(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("backups/%d/", id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting backup %d: %w", id, err)
	}
	return nil
}

// RestoreBackup overwrites tenant data with a stored backup.
func (c *Client) RestoreBackup(ctx context.Context, id int64) (*model.RestoreResult, error) {
	var result model.RestoreResult
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("backups/%d/restore/", id), nil, struct{}{}, &result); err != nil {
		return nil, fmt.Errorf("restoring backup %d: %w", id, err)
	}
	return &result, nil
}

// RestoreFromFile uploads an archive as multipart form-data and restores it.
func (c *Client) RestoreFromFile(ctx context.Context, filename string, archive io.Reader) (*model.RestoreResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("backup_file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, archive); err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", filename, err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("backups/restore_from_file/", nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("building restore request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result model.RestoreResult
	if err := c.send(c.http, req, &result); err != nil {
		return nil, fmt.Errorf("restoring from %s: %w", filename, err)
	}
	return &result, nil
}
