package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/metrics"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/registry"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/session"
)

type fakeModel struct {
	preds  []float32
	names  []string
	runErr error
}

func (f *fakeModel) Run(context.Context, []float32) ([]float32, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.preds, nil
}

func (f *fakeModel) ClassNames() []string { return f.names }
func (f *fakeModel) InputSize() int       { return 64 }
func (f *fakeModel) Candidates() int      { return 4 }

// singleDetectionModel emits one candidate: class "crack" at 0.9 confidence
// covering the center of the frame.
func singleDetectionModel() *fakeModel {
	names := []string{"crack", "pothole"}
	n := 4
	preds := make([]float32, (4+len(names))*n)
	preds[0] = 32   // cx
	preds[n] = 32   // cy
	preds[2*n] = 32 // w
	preds[3*n] = 32 // h
	preds[4*n] = 0.9
	return &fakeModel{preds: preds, names: names}
}

func newTestServer(t *testing.T, loader registry.Loader) *server {
	t.Helper()

	cfg := &Config{
		Addr:             ":0",
		WeightsPath:      "weights.onnx",
		InputSize:        64,
		PoolSize:         1,
		DefaultThreshold: 0.25,
		SeverityHigh:     0.75,
		SeverityMedium:   0.5,
		MaxUploadBytes:   10 << 20,
	}

	sessions := session.NewManager(0)
	t.Cleanup(sessions.Close)

	return newServer(
		cfg,
		registry.New(loader),
		detections.NewDetector(detections.SeverityPolicy{High: cfg.SeverityHigh, Medium: cfg.SeverityMedium}),
		sessions,
		metrics.New(nil),
	)
}

func staticLoader(model detections.Model) registry.Loader {
	return func(string) (detections.Model, error) { return model, nil }
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))))
	return buf.Bytes()
}

func doRequest(s *server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleDetect_RawBody(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(pngBytes(t)))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(sessionHeader))

	var resp detectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	require.Equal(t, models.StatusCritical, resp.Status)
	require.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.Records, 1)
	require.Equal(t, "crack", resp.Result.Records[0].Class)
	require.InDelta(t, 0.9, resp.Result.Records[0].Confidence, 1e-6)
	require.Equal(t, models.SeverityHigh, resp.Result.Records[0].Severity)

	require.Equal(t, 1, resp.Summary.TotalCount)
	require.Equal(t, 1, resp.Summary.SeverityCounts[models.SeverityHigh])
	require.Nil(t, resp.Summary.Trend, "first scan has no trend")
	require.NotEmpty(t, resp.AnnotatedImage)

	// The annotated payload decodes back to an image-sized blob.
	decoded, err := base64.StdEncoding.DecodeString(resp.AnnotatedImage)
	require.NoError(t, err)
	require.NotEmpty(t, decoded)
}

func TestHandleDetect_JSONBody(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	body, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(pngBytes(t)),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleDetect_MultipartWithThreshold(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("threshold", "0.95"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp detectResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	// The 0.9-confidence candidate falls below the 0.95 threshold.
	require.Equal(t, models.StatusSafe, resp.Status)
	require.Equal(t, 0, resp.Summary.TotalCount)
	require.InDelta(t, 0.95, resp.Result.Threshold, 1e-9)
}

func TestHandleDetect_UndecodableImage(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader([]byte("not an image")))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "invalid_image", resp.Code)
}

func TestHandleDetect_InvalidThreshold(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	for _, raw := range []string{"1.5", "0", "1", "-0.3", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/detect?threshold="+raw, bytes.NewReader(pngBytes(t)))
		rec := doRequest(s, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "threshold %q", raw)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "invalid_request", resp.Code)
	}
}

func TestHandleDetect_ModelLoadFailure(t *testing.T) {
	s := newTestServer(t, func(string) (detections.Model, error) {
		return nil, errors.New("corrupt checkpoint")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(pngBytes(t)))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "model_load_error", resp.Code)
	require.Contains(t, resp.Details, "weights.onnx")
}

func TestHandleDetect_InferenceFailure(t *testing.T) {
	model := singleDetectionModel()
	model.runErr = errors.New("runtime exploded")
	s := newTestServer(t, staticLoader(model))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(pngBytes(t)))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "inference_error", resp.Code)
}

func TestHistoryFlow(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))
	sessionID := "test-session"

	detect := func() detectResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(pngBytes(t)))
		req.Header.Set(sessionHeader, sessionID)
		rec := doRequest(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp detectResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		return resp
	}

	first := detect()
	require.Nil(t, first.Summary.Trend)

	second := detect()
	require.NotNil(t, second.Summary.Trend, "second scan reports a trend")
	require.Equal(t, 0, second.Summary.Trend.CountDelta)

	histReq := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	histReq.Header.Set(sessionHeader, sessionID)
	histRec := doRequest(s, histReq)
	require.Equal(t, http.StatusOK, histRec.Code)

	var hist historyResponse
	require.NoError(t, json.NewDecoder(histRec.Body).Decode(&hist))
	require.Equal(t, 2, hist.TotalScans)
	require.Equal(t, 2, hist.TotalDefects)
	require.Len(t, hist.Recent, 2)
	require.Equal(t, 2, hist.Stats.ScansWithDefects)

	clearReq := httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil)
	clearReq.Header.Set(sessionHeader, sessionID)
	require.Equal(t, http.StatusNoContent, doRequest(s, clearReq).Code)

	histRec = doRequest(s, histReq)
	hist = historyResponse{}
	require.NoError(t, json.NewDecoder(histRec.Body).Decode(&hist))
	require.Equal(t, 0, hist.TotalScans)
	require.Empty(t, hist.Recent)
}

func TestHandleModelInfo(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp modelInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp.NumClasses)
	require.Equal(t, []string{"crack", "pothole"}, resp.ClassNames)
	require.Equal(t, 64, resp.InputSize)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, staticLoader(singleDetectionModel()))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestAlertMessage(t *testing.T) {
	require.Contains(t, alertMessage(0, 0.5), "safe")
	require.Contains(t, alertMessage(1, 0.5), "1 potential defect")
	require.Contains(t, alertMessage(3, 0.5), "3 potential defects")
}
