package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// ErrRestoreNotConfirmed is returned when a destructive restore was
// requested without explicit confirmation.
var ErrRestoreNotConfirmed = errors.New("restore requires confirmation")

// RestoreFailedError carries the server-provided text of a restore the
// server did not confirm with success:true.
type RestoreFailedError struct {
	Text string
}

func (e *RestoreFailedError) Error() string {
	return "restore failed: " + e.Text
}

// BackupService manages tenant backups.
type BackupService struct {
	api          driven.BackupAPI
	refreshDelay time.Duration
	logger       *slog.Logger
}

// NewBackupService creates a BackupService. refreshDelay is the fixed wait
// between creating a backup and re-listing.
func NewBackupService(api driven.BackupAPI, refreshDelay time.Duration, logger *slog.Logger) *BackupService {
	return &BackupService{api: api, refreshDelay: refreshDelay, logger: logger}
}

// List returns the backups as the server reports them.
func (s *BackupService) List(ctx context.Context) ([]model.Backup, error) {
	return s.api.ListBackups(ctx)
}

// Create requests a backup, waits the refresh delay and re-lists. The list
// includes the new backup with the server's status; if the server does not
// list it yet, the creation response is merged in unchanged.
func (s *BackupService) Create(ctx context.Context) (*model.Backup, []model.Backup, error) {
	created, err := s.api.CreateBackup(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("backup requested", "backup_id", created.ID, "status", created.Status)

	if s.refreshDelay > 0 {
		timer := time.NewTimer(s.refreshDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return created, nil, ctx.Err()
		case <-timer.C:
		}
	}

	backups, err := s.api.ListBackups(ctx)
	if err != nil {
		return created, nil, err
	}

	for _, b := range backups {
		if b.ID == created.ID {
			return created, backups, nil
		}
	}
	return created, append([]model.Backup{*created}, backups...), nil
}

// Download streams a backup archive into w.
func (s *BackupService) Download(ctx context.Context, id int64, w io.Writer) (int64, error) {
	return s.api.DownloadBackup(ctx, id, w)
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteBackup(ctx, id); err != nil {
		return err
	}
	s.logger.Info("backup deleted", "backup_id", id)
	return nil
}

// Restore overwrites tenant data with a stored backup. It refuses to run
// unless confirmed is true.
func (s *BackupService) Restore(ctx context.Context, id int64, confirmed bool) (*model.RestoreResult, error) {
	if !confirmed {
		return nil, ErrRestoreNotConfirmed
	}
	res, err := s.api.RestoreBackup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &RestoreFailedError{Text: res.FailureText()}
	}
	s.logger.Warn("tenant data restored from backup", "backup_id", id)
	return res, nil
}

// RestoreFromFile uploads an archive and restores it. Only a response with
// success:true counts as success.
func (s *BackupService) RestoreFromFile(ctx context.Context, filename string, archive io.Reader, confirmed bool) (*model.RestoreResult, error) {
	if !confirmed {
		return nil, ErrRestoreNotConfirmed
	}
	if strings.TrimSpace(filename) == "" || archive == nil {
		return nil, &model.ValidationError{Field: "backup_file", Message: "seleccione un archivo de respaldo"}
	}

	res, err := s.api.RestoreFromFile(ctx, filename, archive)
	if err != nil {
		return nil, fmt.Errorf("restore from %s: %w", filename, err)
	}
	if !res.Success {
		return nil, &RestoreFailedError{Text: res.FailureText()}
	}
	s.logger.Warn("tenant data restored from uploaded archive", "filename", filename)
	return res, nil
}
