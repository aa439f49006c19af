package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecoclassify/ecoclassify/internal/backend/classifier"
	"github.com/ecoclassify/ecoclassify/internal/backend/database"
	"github.com/ecoclassify/ecoclassify/internal/backend/upload"
	"github.com/ecoclassify/ecoclassify/internal/core"
)

type fakeService struct {
	record      *database.Prediction
	classifyErr error

	history    []*database.Prediction
	historyErr error

	stats    *core.Stats
	statsErr error

	classified bool
}

func (f *fakeService) Classify(context.Context, *multipart.FileHeader) (*database.Prediction, error) {
	f.classified = true
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.record, nil
}

func (f *fakeService) History(context.Context) ([]*database.Prediction, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeService) DashboardStats(context.Context) (*core.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func newTestServer(service ClassificationService) *echo.Echo {
	e := echo.New()
	NewAPIService(&core.ServiceConfig{}, service).SetRoutes(e)
	return e
}

func multipartRequest(t *testing.T, fieldName, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("part write error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer close error: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/predict", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response body %q: %v", recorder.Body.String(), err)
	}
}

func TestProbeRoute(t *testing.T) {
	server := newTestServer(&fakeService{})

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder.Body.String() != "Waste Classification Backend is running!" {
		t.Errorf("unexpected liveness body: %q", recorder.Body.String())
	}
}

func TestPredict_Success(t *testing.T) {
	record := &database.Prediction{
		ID:             "id-1",
		PredictedClass: "plastic",
		Confidence:     0.87,
		Handling:       []string{"rinse", "recycle"},
		CreatedAt:      time.Now().UTC(),
	}
	service := &fakeService{record: record}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, multipartRequest(t, upload.FieldName, "trash.png", []byte("data")))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Message    string `json:"message"`
		Prediction struct {
			PredictedClass string   `json:"predictedClass"`
			Confidence     float64  `json:"confidence"`
			Handling       []string `json:"handling"`
		} `json:"prediction"`
	}
	decodeBody(t, recorder, &response)
	if response.Message != "Prediction successful" {
		t.Errorf("unexpected message: %q", response.Message)
	}
	if response.Prediction.PredictedClass != "plastic" || response.Prediction.Confidence != 0.87 {
		t.Errorf("prediction payload mismatch: %+v", response.Prediction)
	}
	if len(response.Prediction.Handling) != 2 {
		t.Errorf("handling steps missing from payload: %v", response.Prediction.Handling)
	}
}

func TestPredict_NoFile(t *testing.T) {
	service := &fakeService{}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/predict", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	var response struct {
		Message string `json:"message"`
	}
	decodeBody(t, recorder, &response)
	if response.Message != "No image uploaded." {
		t.Errorf("unexpected message: %q", response.Message)
	}
	if service.classified {
		t.Fatalf("Classify must not be called without a file")
	}
}

func TestPredict_WrongFieldName(t *testing.T) {
	service := &fakeService{}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, multipartRequest(t, "file", "trash.png", []byte("data")))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong field name, got %d", recorder.Code)
	}
	if service.classified {
		t.Fatalf("Classify must not be called without the image field")
	}
}

func TestPredict_FailureTaxonomy(t *testing.T) {
	testCases := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
		expectedError   string
	}{
		{
			name:            "upload validation",
			err:             fmt.Errorf("%w: file extension \".pdf\" is not an accepted image type", upload.ErrValidation),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid image upload.",
			expectedError:   `file extension ".pdf" is not an accepted image type`,
		},
		{
			name:            "invocation failure with structured stderr",
			err:             fmt.Errorf("%w: model unavailable", classifier.ErrInvocation),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Error executing prediction script.",
			expectedError:   "model unavailable",
		},
		{
			name:            "semantic prediction error",
			err:             fmt.Errorf("%w: could not classify image", classifier.ErrPrediction),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Error during prediction.",
			expectedError:   "could not classify image",
		},
		{
			name:            "unusable output",
			err:             fmt.Errorf("%w: no output", classifier.ErrUnusableOutput),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Error processing prediction result.",
			expectedError:   "no output",
		},
		{
			name:            "store failure",
			err:             fmt.Errorf("%w: connection lost", core.ErrPersistence),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Error saving prediction result.",
			expectedError:   "connection lost",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newTestServer(&fakeService{classifyErr: testCase.err})

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, multipartRequest(t, upload.FieldName, "trash.png", []byte("data")))

			if recorder.Code != testCase.expectedStatus {
				t.Fatalf("expected %d, got %d", testCase.expectedStatus, recorder.Code)
			}
			var response struct {
				Message string `json:"message"`
				Error   string `json:"error"`
			}
			decodeBody(t, recorder, &response)
			if response.Message != testCase.expectedMessage {
				t.Errorf("expected message %q, got %q", testCase.expectedMessage, response.Message)
			}
			if response.Error != testCase.expectedError {
				t.Errorf("expected error %q, got %q", testCase.expectedError, response.Error)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	now := time.Now().UTC()
	service := &fakeService{history: []*database.Prediction{
		{ID: "b", PredictedClass: "glass", Confidence: 0.9, Handling: []string{}, CreatedAt: now},
		{ID: "a", PredictedClass: "paper", Confidence: 0.8, Handling: []string{}, CreatedAt: now.Add(-time.Hour)},
	}}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/predictions", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var response struct {
		Message     string `json:"message"`
		Predictions []struct {
			ID string `json:"id"`
		} `json:"predictions"`
	}
	decodeBody(t, recorder, &response)
	if response.Message != "Prediction history fetched successfully" {
		t.Errorf("unexpected message: %q", response.Message)
	}
	if len(response.Predictions) != 2 || response.Predictions[0].ID != "b" {
		t.Errorf("expected ordered history, got %+v", response.Predictions)
	}
}

func TestHistory_StoreFailure(t *testing.T) {
	service := &fakeService{historyErr: fmt.Errorf("connection lost")}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/predictions", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	var response struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	decodeBody(t, recorder, &response)
	if response.Message != "Error fetching prediction history." {
		t.Errorf("unexpected message: %q", response.Message)
	}
	if response.Error != "connection lost" {
		t.Errorf("expected the store's error, got %q", response.Error)
	}
}

func TestStats(t *testing.T) {
	service := &fakeService{stats: &core.Stats{
		TotalClassifications: 3,
		ByClass:              map[string]int{"plastic": 2, "battery": 1},
		RecyclableWaste:      2,
		HazardousWaste:       1,
	}}
	server := newTestServer(service)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var response struct {
		Stats struct {
			TotalClassifications int            `json:"totalClassifications"`
			ByClass              map[string]int `json:"byClass"`
		} `json:"stats"`
	}
	decodeBody(t, recorder, &response)
	if response.Stats.TotalClassifications != 3 {
		t.Errorf("expected 3 total, got %d", response.Stats.TotalClassifications)
	}
	if response.Stats.ByClass["plastic"] != 2 {
		t.Errorf("expected byClass counts, got %+v", response.Stats.ByClass)
	}
}

func TestCategories(t *testing.T) {
	server := newTestServer(&fakeService{})

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var response struct {
		Categories []struct {
			Key      string   `json:"key"`
			Title    string   `json:"title"`
			Handling []string `json:"handling"`
		} `json:"categories"`
	}
	decodeBody(t, recorder, &response)
	if len(response.Categories) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(response.Categories))
	}
	if response.Categories[0].Key != "battery" {
		t.Errorf("expected stable catalog order, got %q first", response.Categories[0].Key)
	}
}
