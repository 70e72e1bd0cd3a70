package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

const uploadMemoryBytes = 32 << 20

func backupsPage(backups []model.Backup) vm.BackupsPage {
	return vm.BackupsPage{
		Rows:         toBackupRows(backups),
		CreateAction: "/backups",
		UploadAction: "/backups/restore-file",
	}
}

// Backups lists the tenant backups.
func (h *Handler) Backups(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionBackups)
	if !ok {
		return
	}
	backups, err := h.backups.List(r.Context())
	if err != nil {
		h.fail(w, r, user, err, "failed to list backups")
		return
	}
	shell := h.shell(w, r, "Copias de seguridad", user)
	h.render(w, r, http.StatusOK, shell, pages.Backups(backupsPage(backups), shell.CSRFToken))
}

// CreateBackup requests a backup and shows the list once it was refreshed.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionBackups); !ok {
		return
	}
	created, _, err := h.backups.Create(r.Context())
	if err != nil {
		h.failBack(w, r, err, "/backups", "failed to create backup")
		return
	}
	setFlash(w, flashOK, "Copia solicitada (estado: "+backupStatusLabel(created.Status)+").")
	http.Redirect(w, r, "/backups", http.StatusSeeOther)
}

// DownloadBackup streams a backup archive.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionBackups)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="backup-`+strconv.FormatInt(id, 10)+`.zip"`)

	n, err := h.backups.Download(r.Context(), id, w)
	if err == nil {
		return
	}
	if n > 0 {
		h.logger.Error("backup download interrupted", "backup_id", id, "bytes", n, "error", err)
		return
	}
	w.Header().Del("Content-Disposition")
	w.Header().Del("Content-Type")
	h.fail(w, r, user, err, "failed to download backup")
}

// DeleteBackup removes a backup.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionBackups); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.backups.Delete(r.Context(), id); err != nil {
		h.failBack(w, r, err, "/backups", "failed to delete backup")
		return
	}
	setFlash(w, flashOK, "Copia eliminada.")
	http.Redirect(w, r, "/backups", http.StatusSeeOther)
}

// RestoreBackup overwrites tenant data with a stored backup once confirmed.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionBackups); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := h.backups.Restore(r.Context(), id, r.PostFormValue("confirmar") == "1")
	if err != nil {
		h.failBack(w, r, err, "/backups", "failed to restore backup")
		return
	}
	setFlash(w, flashOK, restoreNotice(res))
	http.Redirect(w, r, "/backups", http.StatusSeeOther)
}

// RestoreFromFile uploads an archive and restores it. On failure the page is
// rendered again with the server text and the chosen file name.
func (h *Handler) RestoreFromFile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionBackups)
	if !ok {
		return
	}
	ctx := r.Context()

	var filename string
	var err error
	if perr := r.ParseMultipartForm(uploadMemoryBytes); perr != nil && !errors.Is(perr, http.ErrNotMultipart) {
		err = &model.ValidationError{Field: "backup_file", Message: "no se pudo leer el archivo enviado"}
	} else {
		confirmed := r.PostFormValue("confirmar") == "1"
		file, header, ferr := r.FormFile("archivo")
		if ferr == nil {
			defer file.Close()
			filename = header.Filename
			var res *model.RestoreResult
			if res, err = h.backups.RestoreFromFile(ctx, filename, file, confirmed); err == nil {
				setFlash(w, flashOK, restoreNotice(res))
				http.Redirect(w, r, "/backups", http.StatusSeeOther)
				return
			}
		} else {
			_, err = h.backups.RestoreFromFile(ctx, "", nil, confirmed)
		}
	}

	f := application.DescribeFailure(err)
	if h.redirectUnauthorized(w, r, f) {
		return
	}
	h.logFailure(f, err, "failed to restore uploaded backup")

	backups, listErr := h.backups.List(ctx)
	if listErr != nil {
		h.logger.Warn("failed to list backups after restore failure", "error", listErr)
	}
	page := backupsPage(backups)
	page.SelectedFile = filename
	page.RestoreError = f.Message

	shell := h.shell(w, r, "Copias de seguridad", user)
	h.render(w, r, failureStatus(f.Kind), shell, pages.Backups(page, shell.CSRFToken))
}

func restoreNotice(res *model.RestoreResult) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	return "Restauración completada."
}
