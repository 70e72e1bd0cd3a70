package application_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func TestBackupService_CreateListsServerStatus(t *testing.T) {
	api := &mockBackupAPI{
		created: &model.Backup{ID: 7, Status: model.BackupPending},
		listed: []model.Backup{
			{ID: 7, Status: model.BackupCompleted},
			{ID: 3, Status: model.BackupCompleted},
		},
	}
	svc := application.NewBackupService(api, 0, discardLogger())

	created, list, err := svc.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, 1, api.listCalls)
	require.Len(t, list, 2)
	assert.Equal(t, model.BackupCompleted, list[0].Status, "status comes from the server list")
}

func TestBackupService_CreateMergesUnlistedBackup(t *testing.T) {
	api := &mockBackupAPI{
		created: &model.Backup{ID: 8, Status: model.BackupPending},
		listed:  []model.Backup{{ID: 3, Status: model.BackupCompleted}},
	}
	svc := application.NewBackupService(api, 0, discardLogger())

	_, list, err := svc.Create(context.Background())
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, int64(8), list[0].ID)
	assert.Equal(t, model.BackupPending, list[0].Status)
}

func TestBackupService_CreateHonorsCancellationDuringDelay(t *testing.T) {
	api := &mockBackupAPI{created: &model.Backup{ID: 1}}
	svc := application.NewBackupService(api, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	created, _, err := svc.Create(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), created.ID)
	assert.Zero(t, api.listCalls)
}

func TestBackupService_RestoreRequiresConfirmation(t *testing.T) {
	api := &mockBackupAPI{restoreRes: &model.RestoreResult{Success: true}}
	svc := application.NewBackupService(api, 0, discardLogger())

	_, err := svc.Restore(context.Background(), 1, false)
	require.ErrorIs(t, err, application.ErrRestoreNotConfirmed)

	_, err = svc.RestoreFromFile(context.Background(), "b.zip", strings.NewReader("x"), false)
	require.ErrorIs(t, err, application.ErrRestoreNotConfirmed)

	assert.Zero(t, api.restoreCalls)
}

func TestBackupService_RestoreFromFileWithoutSuccessFails(t *testing.T) {
	api := &mockBackupAPI{restoreRes: &model.RestoreResult{Error: "archivo corrupto"}}
	svc := application.NewBackupService(api, 0, discardLogger())

	res, err := svc.RestoreFromFile(context.Background(), "respaldo.zip", strings.NewReader("data"), true)

	assert.Nil(t, res)
	var failed *application.RestoreFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "archivo corrupto", failed.Text)
	assert.Equal(t, "respaldo.zip:data", api.uploaded)
}

func TestBackupService_RestoreWithoutTextUsesFallback(t *testing.T) {
	api := &mockBackupAPI{restoreRes: &model.RestoreResult{Success: false}}
	svc := application.NewBackupService(api, 0, discardLogger())

	_, err := svc.Restore(context.Background(), 4, true)

	var failed *application.RestoreFailedError
	require.ErrorAs(t, err, &failed)
	assert.NotEmpty(t, failed.Text)
}

func TestBackupService_RestoreSuccess(t *testing.T) {
	api := &mockBackupAPI{restoreRes: &model.RestoreResult{Success: true, Message: "ok"}}
	svc := application.NewBackupService(api, 0, discardLogger())

	res, err := svc.RestoreFromFile(context.Background(), "b.zip", strings.NewReader("x"), true)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestBackupService_RestoreFromFileRequiresFile(t *testing.T) {
	svc := application.NewBackupService(&mockBackupAPI{}, 0, discardLogger())

	_, err := svc.RestoreFromFile(context.Background(), "", nil, true)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "backup_file", verr.Field)
}

func TestBackupService_Download(t *testing.T) {
	svc := application.NewBackupService(&mockBackupAPI{}, 0, discardLogger())

	var buf bytes.Buffer
	n, err := svc.Download(context.Background(), 1, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "archive", buf.String())
}
