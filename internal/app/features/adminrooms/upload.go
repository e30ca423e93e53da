// internal/app/features/adminrooms/upload.go
package adminrooms

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/roomdesk/internal/app/features/errors"
	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/limits"
	"github.com/dalemusser/roomdesk/internal/app/system/timeouts"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type uploadVM struct {
	DryRun   bool               `json:"dryRun"`
	Applied  bool               `json:"applied"`
	Count    int                `json:"count"`
	Rooms    []models.Room      `json:"rooms"`
	Errors   []csvutil.RowError `json:"errors"`
	Messages []string           `json:"messages"`
	Version  string             `json:"version,omitempty"`
}

// HandleUpload handles POST /admin/rooms/upload.
//
// The file comes either as the "file" field of a multipart form or as a
// text/csv body. With ?dry_run=true the file is only parsed and the preview
// returned. Otherwise a file without errors replaces every room; a file with
// any error changes nothing and the errors are returned with a 400.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxUploadSize)

	body, closeBody, err := uploadBody(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: read upload", err, "Please choose a CSV file to upload.")
		return
	}
	defer closeBody()

	dryRun, _ := strconv.ParseBool(query.Get(r, "dry_run"))
	if dryRun {
		res, err := h.Desk.PreviewUpload(body)
		if err != nil {
			h.ErrLog.Respond(w, r, "admin: preview upload", err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, uploadVM{
			DryRun:   true,
			Count:    len(res.Rooms),
			Rooms:    res.Rooms,
			Errors:   res.Errors,
			Messages: res.Messages(),
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "room upload")
	defer cancel()

	res, err := h.Desk.Upload(ctx, body)
	if err != nil {
		if res.Parse != nil && res.Parse.HasErrors() {
			h.AuditLog.RoomsUploadRejected(ctx, r, len(res.Parse.Errors))
			uierrors.WriteJSON(w, http.StatusBadRequest, uploadVM{
				Rooms:    res.Parse.Rooms,
				Errors:   res.Parse.Errors,
				Messages: res.Parse.Messages(),
			})
			return
		}
		h.ErrLog.Respond(w, r, "admin: upload rooms", err)
		return
	}

	h.AuditLog.RoomsUploaded(ctx, r, len(res.Snapshot.Rooms))
	uierrors.WriteJSON(w, http.StatusOK, uploadVM{
		Applied:  true,
		Count:    len(res.Snapshot.Rooms),
		Rooms:    res.Snapshot.Rooms,
		Errors:   []csvutil.RowError{},
		Messages: []string{},
		Version:  res.Snapshot.Version,
	})
}

func uploadBody(r *http.Request) (io.Reader, func(), error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
			return nil, nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		return file, func() { _ = file.Close() }, nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil, apperr.Validation("empty upload")
	}
	return r.Body, func() {}, nil
}
