package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/analytics"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/metrics"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/registry"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/session"
)

const (
	sessionHeader        = "X-Session-ID"
	historyDisplayLimit  = 10
	annotatedJPEGQuality = 90
)

type server struct {
	cfg      *Config
	registry *registry.Registry
	detector *detections.Detector
	sessions *session.Manager
	metrics  *metrics.Metrics
}

func newServer(cfg *Config, reg *registry.Registry, detector *detections.Detector, sessions *session.Manager, m *metrics.Metrics) *server {
	return &server{
		cfg:      cfg,
		registry: reg,
		detector: detector,
		sessions: sessions,
		metrics:  m,
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/model", s.handleModelInfo).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type detectResponse struct {
	SessionID      string                  `json:"session_id"`
	Status         models.ScanStatus       `json:"status"`
	Message        string                  `json:"message"`
	Result         *models.DetectionResult `json:"result"`
	Summary        models.Summary          `json:"summary"`
	AnnotatedImage string                  `json:"annotated_image,omitempty"`
}

type historyResponse struct {
	SessionID     string                    `json:"session_id"`
	Recent        []*models.DetectionResult `json:"recent"`
	Stats         models.HistoricalStats    `json:"stats"`
	TotalScans    int                       `json:"total_scans"`
	TotalDefects  int                       `json:"total_defects"`
	DetectionRate float64                   `json:"detection_rate"`
}

type modelInfoResponse struct {
	ClassNames []string `json:"class_names"`
	NumClasses int      `json:"num_classes"`
	InputSize  int      `json:"input_size"`
}

func (s *server) handleDetect(w http.ResponseWriter, r *http.Request) {
	startTotal := time.Now()
	timings := &models.ProcessingTimings{RequestID: uuid.NewString()}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	imgBytes, err := readImageBytes(r)
	if err != nil {
		s.scanError(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	threshold, err := s.requestThreshold(r)
	if err != nil {
		s.scanError(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(sessionHeader, sessionID)

	decodeStart := time.Now()
	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	timings.ImageDecode = time.Since(decodeStart)
	if err != nil {
		s.metrics.ScanErrors.WithLabelValues("invalid_image").Inc()
		s.scanError(w, "invalid_image", "Failed to decode image",
			"Supply a valid JPEG or PNG photograph.", http.StatusBadRequest)
		return
	}

	model, err := s.registry.Get(s.cfg.WeightsPath)
	if err != nil {
		s.writeDetectError(w, err)
		return
	}

	result, err := s.detector.Detect(r.Context(), img, model, threshold, timings)
	if err != nil {
		s.writeDetectError(w, err)
		return
	}

	s.metrics.ScansTotal.Inc()
	s.metrics.DetectionsTotal.Add(float64(result.Count()))
	for _, rec := range result.Records {
		s.metrics.DetectionsBySeverity.WithLabelValues(string(rec.Severity)).Inc()
	}
	s.metrics.InferenceDuration.Observe(timings.Inference.Seconds())

	hist := s.sessions.Get(sessionID)
	hist.Append(result)

	var summary models.Summary
	if current, previous, ok := hist.LatestPair(); ok {
		summary = analytics.Summarize(current.Records, previous)
	} else {
		summary = analytics.Summarize(result.Records, nil)
	}

	annotateStart := time.Now()
	annotated, err := encodeAnnotated(img, result)
	timings.Annotate = time.Since(annotateStart)
	if err != nil {
		log.Printf("annotate %s: %v", timings.RequestID, err)
	}

	timings.Total = time.Since(startTotal)
	s.logTimings(timings)

	s.sendJSON(w, http.StatusOK, detectResponse{
		SessionID:      sessionID,
		Status:         result.Status(),
		Message:        alertMessage(result.Count(), threshold),
		Result:         result,
		Summary:        summary,
		AnnotatedImage: annotated,
	})
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(sessionHeader, sessionID)

	hist := s.sessions.Get(sessionID)
	recent := hist.Recent(historyDisplayLimit)

	s.sendJSON(w, http.StatusOK, historyResponse{
		SessionID:     sessionID,
		Recent:        recent,
		Stats:         analytics.HistoricalStats(recent),
		TotalScans:    hist.TotalScans(),
		TotalDefects:  hist.TotalDefects(),
		DetectionRate: analytics.DetectionRate(hist.TotalScans(), hist.TotalDefects()),
	})
}

func (s *server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if sessionID := r.Header.Get(sessionHeader); sessionID != "" {
		s.sessions.Remove(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	model, err := s.registry.Get(s.cfg.WeightsPath)
	if err != nil {
		s.writeDetectError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, modelInfoResponse{
		ClassNames: model.ClassNames(),
		NumClasses: len(model.ClassNames()),
		InputSize:  model.InputSize(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeDetectError maps core error types to HTTP responses. The core never
// renders user-facing text; messaging lives here.
func (s *server) writeDetectError(w http.ResponseWriter, err error) {
	var invalidImage *detections.InvalidImageError
	var loadError *registry.ModelLoadError
	var inferenceError *detections.InferenceError

	switch {
	case errors.As(err, &invalidImage):
		s.metrics.ScanErrors.WithLabelValues("invalid_image").Inc()
		s.scanError(w, "invalid_image", invalidImage.Error(),
			"Supply a valid JPEG or PNG photograph.", http.StatusBadRequest)
	case errors.As(err, &loadError):
		s.metrics.ScanErrors.WithLabelValues("model_load").Inc()
		s.scanError(w, "model_load_error", "Detection model is unavailable",
			loadError.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &inferenceError):
		s.metrics.ScanErrors.WithLabelValues("inference").Inc()
		s.scanError(w, "inference_error", "Detection failed unexpectedly; please retry",
			"", http.StatusInternalServerError)
	default:
		s.metrics.ScanErrors.WithLabelValues("internal").Inc()
		s.scanError(w, "internal_error", "Internal server error", "", http.StatusInternalServerError)
	}
}

func (s *server) scanError(w http.ResponseWriter, code, message, details string, status int) {
	s.sendJSON(w, status, errorResponse{Code: code, Message: message, Details: details})
}

func (s *server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// requestThreshold reads the confidence threshold from the query string or
// form and validates it lies in (0,1). Absent values fall back to the
// configured default.
func (s *server) requestThreshold(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		raw = r.FormValue("threshold")
	}
	if raw == "" {
		return s.cfg.DefaultThreshold, nil
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold <= 0 || threshold >= 1 {
		return 0, fmt.Errorf("threshold must be a number in (0,1), got %q", raw)
	}
	return threshold, nil
}

// readImageBytes extracts the uploaded image from a JSON body
// ({"image": base64}), a multipart form (field "file"), or a raw body.
func readImageBytes(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return readJSONImage(r)
	case strings.HasPrefix(contentType, "multipart/form-data"):
		return readMultipartImage(r)
	default:
		return io.ReadAll(r.Body)
	}
}

func readJSONImage(r *http.Request) ([]byte, error) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(req.Image)
}

func readMultipartImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// encodeAnnotated renders the detections over a copy of the image and
// returns it as base64-encoded JPEG.
func encodeAnnotated(img image.Image, result *models.DetectionResult) (string, error) {
	annotated := detections.Annotate(img, result)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: annotatedJPEGQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *server) logTimings(t *models.ProcessingTimings) {
	if !s.cfg.Debug {
		return
	}
	log.Printf("[DEBUG] RequestID: %s - Processing times:\n"+
		"\tImage Decode: %v\n"+
		"\tResize:      %v\n"+
		"\tPreprocess:  %v\n"+
		"\tInference:   %v\n"+
		"\tPostprocess: %v\n"+
		"\tAnnotate:    %v\n"+
		"\tTotal:       %v",
		t.RequestID,
		t.ImageDecode,
		t.Resize,
		t.Preprocess,
		t.Inference,
		t.Postprocess,
		t.Annotate,
		t.Total)
}
