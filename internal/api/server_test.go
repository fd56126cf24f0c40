package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcheck/internal/detect"
	"botcheck/internal/model"
	"botcheck/internal/store/reportdb"
)

type stubEvaluator struct {
	res       detect.Result
	gotHandle string
	gotCount  int
}

func (s *stubEvaluator) Evaluate(_ context.Context, handle string, count int) detect.Result {
	s.gotHandle, s.gotCount = handle, count
	return s.res
}

func okResult() detect.Result {
	return detect.Result{Report: &detect.Report{
		ID:         "rep-1",
		CreatedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Handle:     "jack",
		Prediction: model.LabelNotBot,
		Features:   make([]float64, 49),
	}}
}

func failed(err error) detect.Result { return detect.Result{Error: err.Error(), Err: err} }

func newTestServer(t *testing.T, eval Evaluator) (*Server, *reportdb.DB) {
	t.Helper()
	db, err := reportdb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewServer(eval, db, 10, zerolog.Nop()), db
}

func post(t *testing.T, s http.Handler, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body)))
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestAnalyzeStoresReport(t *testing.T) {
	eval := &stubEvaluator{res: okResult()}
	s, db := newTestServer(t, eval)

	rec, resp := post(t, s, `{"handle":"@jack"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "@jack", eval.gotHandle)
	assert.Equal(t, 10, eval.gotCount)

	data := resp.Data.(map[string]any)
	metrics := data["metrics"].([]any)
	last := metrics[len(metrics)-1].(map[string]any)
	assert.Equal(t, "Prediction", last["name"])
	assert.Equal(t, "Not a Bot", last["value"])

	got, err := db.GetReport(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "jack", got.Handle)
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: handle is empty", detect.ErrInvalidInput), http.StatusBadRequest},
		{&model.APIError{Status: 404, Message: "account not found", Err: model.ErrAccountNotFound}, http.StatusNotFound},
		{&model.APIError{Status: 429, Message: "rate limited", Err: model.ErrRateLimited}, http.StatusBadGateway},
		{&model.ModelError{Op: "predict", Err: fmt.Errorf("boom")}, http.StatusInternalServerError},
		{&model.SchemaDriftError{Want: 49, Got: 48}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s, _ := newTestServer(t, &stubEvaluator{res: failed(tc.err)})
		rec, resp := post(t, s, `{"handle":"jack","count":5}`)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		assert.False(t, resp.Success)
		assert.Equal(t, tc.err.Error(), resp.Error)
	}
}

func TestAnalyzeRejectsBadJSON(t *testing.T) {
	s, _ := newTestServer(t, &stubEvaluator{res: okResult()})
	rec, resp := post(t, s, `{"handle":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "invalid JSON")
}

func TestReportsEndpoints(t *testing.T) {
	s, db := newTestServer(t, &stubEvaluator{})
	ctx := context.Background()
	require.NoError(t, db.PutReport(ctx, *okResult().Report))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rep-1"`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Username"`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-1/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	s := NewServer(&stubEvaluator{res: okResult()}, nil, 10, zerolog.Nop())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = post(t, s, `{"handle":"jack"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, &stubEvaluator{})
	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
