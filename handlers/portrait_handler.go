package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/camden-git/familytree/services"
	"github.com/camden-git/familytree/utils"
	"github.com/camden-git/familytree/workers"
)

const defaultMaxPortraitBytes = 20 << 20

// PortraitQueue accepts uploaded portraits for background processing
type PortraitQueue interface {
	QueueJob(job workers.PortraitJob) error
}

type PortraitHandler struct {
	Tree      *services.FamilyTree
	Queue     PortraitQueue
	UploadDir string
	MaxBytes  int64
	Logger    *zap.Logger
}

// UploadPortrait stores the "portrait" multipart file and queues it for the person in
// the path. The response is 202; the portrait path appears once a worker is done.
func (h *PortraitHandler) UploadPortrait(w http.ResponseWriter, r *http.Request) {
	fh := &FamilyHandler{Tree: h.Tree}
	person, ok := fh.personFromPath(w, r)
	if !ok {
		return
	}

	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxPortraitBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("portrait")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Missing portrait file")
		return
	}
	defer file.Close()

	if !utils.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusUnsupportedMediaType, CodeUnsupported, "Portrait must be a raster image")
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		h.Logger.Error("failed to create upload directory", zap.String("dir", h.UploadDir), zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to store upload")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(h.UploadDir, "portrait-*"+ext)
	if err != nil {
		h.Logger.Error("failed to create upload file", zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(out.Name())
		h.Logger.Error("failed to write upload", zap.String("path", out.Name()), zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to store upload")
		return
	}
	out.Close()

	err = h.Queue.QueueJob(workers.PortraitJob{PersonID: person.ID, SourcePath: out.Name()})
	if err != nil {
		os.Remove(out.Name())
		switch {
		case errors.Is(err, workers.ErrAlreadyPending):
			WriteAPIError(w, http.StatusConflict, CodeConflict, "A portrait for this person is already being processed")
		default:
			h.Logger.Warn("failed to queue portrait", zap.String("person_id", person.ID), zap.Error(err))
			WriteAPIError(w, http.StatusServiceUnavailable, CodeUnavailable, "Portrait queue unavailable, try again later")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "person_id": person.ID})
}
