package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ayusman/tinsel/internal/gallery"
	"github.com/ayusman/tinsel/internal/scene"
)

// PhotoAdder ingests an uploaded photo into the scene.
type PhotoAdder interface {
	Upload(name string, r io.Reader) (scene.Object, error)
	Collection() *scene.Collection
}

// PhotosHandler serves /api/photos.
type PhotosHandler struct {
	photos PhotoAdder
}

// NewPhotosHandler creates a PhotosHandler.
func NewPhotosHandler(p PhotoAdder) *PhotosHandler {
	return &PhotosHandler{photos: p}
}

type photoResponse struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	BasePosition [3]float64 `json:"base_position"`
	BaseRotation [3]float64 `json:"base_rotation"`
}

type listPhotosResponse struct {
	Photos []photoResponse `json:"photos"`
}

func toPhotoResponse(o scene.Object) photoResponse {
	return photoResponse{ID: o.ID, URL: o.URL, BasePosition: o.BasePosition, BaseRotation: o.BaseRotation}
}

func (h *PhotosHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.upload(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// list handles GET /api/photos in scene order.
func (h *PhotosHandler) list(w http.ResponseWriter) {
	objs := h.photos.Collection().Snapshot()
	resp := listPhotosResponse{Photos: make([]photoResponse, 0, len(objs))}
	for _, o := range objs {
		resp.Photos = append(resp.Photos, toPhotoResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// upload handles POST /api/photos with a multipart "file" field.
func (h *PhotosHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, gallery.MaxPhotoSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	obj, err := h.photos.Upload(header.Filename, file)
	switch {
	case errors.Is(err, gallery.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "File is not a supported image")
		return
	case errors.Is(err, gallery.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
		return
	case err != nil:
		log.Printf("Upload of %s failed: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, "Failed to store photo")
		return
	}

	writeJSON(w, http.StatusCreated, toPhotoResponse(obj))
}
