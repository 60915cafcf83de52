package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/couchcryptid/asset-rating-service/internal/adapter/filestore"
	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// DownloadPath is the route prefix under which generated files are served.
const DownloadPath = "/api/assets/download/"

const uploadField = "csvFile"

var assetRoutes = []struct {
	slug      string
	assetType domain.AssetType
}{
	{"roadway-illumination", domain.RoadwayIllumination},
	{"highway-buildings", domain.HighwayBuilding},
	{"traffic-signs", domain.TrafficSign},
	{"traffic-signals", domain.TrafficSignal},
	{"pavement-markings", domain.PavementMarking},
}

// rateRequest is the JSON body of the single-asset endpoints. Fields are
// decoded loosely so that a wrongly typed value is rejected by validation
// with its message rather than by the decoder. Other fields, such as
// coordinates, are ignored.
type rateRequest struct {
	InstalledDate      any `json:"installedDate"`
	LastMaintainedDate any `json:"lastMaintainedDate"`
	FCIIndex           any `json:"fciIndex"`
	RRIndex            any `json:"rrIndex"`
}

type rateResponse struct {
	Rating domain.Condition `json:"rating"`
}

type batchResponse struct {
	Success     bool              `json:"success"`
	BatchID     string            `json:"batchId"`
	Data        []domain.RatedRow `json:"data"`
	DownloadURL string            `json:"downloadUrl"`
	Filename    string            `json:"filename"`
}

type batchErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// stringOrEmpty accepts only JSON strings.
func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}

// numberOrNil accepts only JSON numbers.
func numberOrNil(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func (s *Server) handleRate(assetType domain.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cond, err := s.svc.Rater.Rate(domain.AssetRecord{
			Type:               assetType,
			InstalledDate:      stringOrEmpty(req.InstalledDate),
			LastMaintainedDate: stringOrEmpty(req.LastMaintainedDate),
			FCIIndex:           numberOrNil(req.FCIIndex),
			RRIndex:            numberOrNil(req.RRIndex),
		})
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				s.svc.Metrics.ValidationErrors.WithLabelValues(assetType.String()).Inc()
				writeError(w, http.StatusBadRequest, verr.Message)
				return
			}
			s.logger.Error("rate asset failed", "asset_type", assetType.String(), "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s.svc.Metrics.Ratings.WithLabelValues(assetType.String(), string(cond)).Inc()
		writeJSON(w, http.StatusOK, rateResponse{Rating: cond})
	}
}

func (s *Server) handleRateCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp parts only
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "No CSV file uploaded")
		return
	}
	defer file.Close()

	if !isCSV(header.Filename, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	res, err := s.svc.Batch.Run(r.Context(), file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, batchErrorResponse{
			Error:   "Error processing CSV file",
			Details: err.Error(),
		})
		return
	}

	rows := res.Rows
	if rows == nil {
		rows = []domain.RatedRow{}
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Success:     true,
		BatchID:     res.BatchID,
		Data:        rows,
		DownloadURL: DownloadPath + res.Filename,
		Filename:    res.Filename,
	})
}

func isCSV(filename, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/csv"
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := s.svc.Files.OpenOutput(name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.logger.Error("open output file failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Error downloading file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("stat output file failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Error downloading file")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
