package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/service"

	"github.com/gorilla/mux"
)

const (
	imagesFormField  = "images"
	maxImagesPerPost = 10
)

// ImageUploadHandler accepts multipart image uploads and serves stored files.
type ImageUploadHandler struct {
	images      service.ImageService
	maxFileSize int64
}

// NewImageUploadHandler creates a new upload handler. maxFileSize is per file, in bytes.
func NewImageUploadHandler(images service.ImageService, maxFileSize int64) *ImageUploadHandler {
	return &ImageUploadHandler{
		images:      images,
		maxFileSize: maxFileSize,
	}
}

// HandleUpload stores the files posted under the "images" form field.
func (h *ImageUploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Leave room for multipart framing on top of the file payloads.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize*maxImagesPerPost+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[imagesFormField]
	if len(headers) > maxImagesPerPost {
		writeError(w, r, fmt.Errorf("%w: at most %d images per upload", domain.ErrValidation, maxImagesPerPost))
		return
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		files = append(files, uploadedFile(fh, f))
	}

	urls, err := h.images.UploadImages(r.Context(), userID, files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"urls": urls})
}

func uploadedFile(fh *multipart.FileHeader, f multipart.File) service.UploadedFile {
	return service.UploadedFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}
}

// HandleDownload streams a stored image.
func (h *ImageUploadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	file, contentType, err := h.images.OpenImage(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream image", "key", key, "error", err)
	}
}

// HandlePing lets clients check that the upload endpoint is reachable.
func (h *ImageUploadHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Uploads endpoint is working"})
}
