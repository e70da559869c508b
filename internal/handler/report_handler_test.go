package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/excelmerge/internal/domain"
	"github.com/locvowork/excelmerge/internal/service"
	"github.com/locvowork/excelmerge/internal/service/serviceutils"
	"github.com/locvowork/excelmerge/pkg/sheetmerge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportService struct {
	filter   domain.FeatureFilter
	req      service.MergeRequest
	uploaded []byte
	sheet    string
	regions  []sheetmerge.Region
	err      error
}

func (s *fakeReportService) BuildFeatureReport(ctx context.Context, filter domain.FeatureFilter) ([]byte, error) {
	s.filter = filter
	return []byte("xlsx"), s.err
}

func (s *fakeReportService) MergeUploaded(ctx context.Context, r io.Reader, req service.MergeRequest) (*service.MergeResult, error) {
	s.req = req
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.uploaded = data
	if s.err != nil {
		return nil, s.err
	}
	sheet := req.Sheet
	if sheet == "" {
		sheet = s.sheet
	}
	return &service.MergeResult{Workbook: []byte("merged"), Sheet: sheet, Regions: s.regions}, nil
}

func newTestServer(svc ReportService) *echo.Echo {
	return newLimitedServer(svc, 1<<20)
}

func newLimitedServer(svc ReportService, uploadMaxBytes int64) *echo.Echo {
	e := echo.New()
	e.Use(RequestContext())
	h := NewReportHandler(svc)
	e.GET("/healthz", h.HealthHandler)
	e.GET("/reports/features", h.FeatureReportHandler)
	e.POST("/merge", h.MergeHandler, UploadLimit(uploadMaxBytes))
	return e
}

func multipartUpload(t *testing.T, target string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "book.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) serviceutils.Response {
	t.Helper()
	var resp serviceutils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthHandler(t *testing.T) {
	e := newTestServer(&fakeReportService{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestContext_KeepsIncomingID(t *testing.T) {
	e := newTestServer(&fakeReportService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestFeatureReportHandler(t *testing.T) {
	testCases := map[string]struct {
		target string
		err    error
		status int
		filter domain.FeatureFilter
	}{
		"all brands": {
			target: "/reports/features",
			status: http.StatusOK,
		},
		"repeated and comma separated brands": {
			target: "/reports/features?brand=Apple,Sony&brand=%20Nokia&limit=3",
			status: http.StatusOK,
			filter: domain.FeatureFilter{Brands: []string{"Apple", "Sony", "Nokia"}, Limit: 3},
		},
		"invalid limit": {
			target: "/reports/features?limit=-1",
			status: http.StatusBadRequest,
		},
		"service failure": {
			target: "/reports/features",
			err:    errors.New("db down"),
			status: http.StatusInternalServerError,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeReportService{err: tc.err}
			rec := httptest.NewRecorder()
			newTestServer(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				assert.False(t, decodeResponse(t, rec).Success)
				return
			}
			assert.Equal(t, tc.filter, svc.filter)
			assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
			assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "feature_report.xlsx")
			assert.Equal(t, "xlsx", rec.Body.String())
		})
	}
}

func TestMergeHandler_ReturnsWorkbook(t *testing.T) {
	svc := &fakeReportService{regions: []sheetmerge.Region{{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 0}}}
	rec := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(rec, multipartUpload(t, "/merge?sheet=Data&axis=rows&start_row=1&end_col=4", []byte("upload")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "merged", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Merged-Regions"))
	assert.Equal(t, "Data", rec.Header().Get("X-Merged-Sheet"))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "merged_book.xlsx")

	assert.Equal(t, []byte("upload"), svc.uploaded)
	assert.Equal(t, "Data", svc.req.Sheet)
	assert.Equal(t, sheetmerge.AxisRows, svc.req.Axis)
	require.NotNil(t, svc.req.StartRow)
	assert.Equal(t, 1, *svc.req.StartRow)
	require.NotNil(t, svc.req.EndCol)
	assert.Equal(t, 4, *svc.req.EndCol)
	assert.Nil(t, svc.req.EndRow)
	assert.Nil(t, svc.req.StartCol)
}

func TestMergeHandler_JSONRegions(t *testing.T) {
	svc := &fakeReportService{
		sheet:   "Inventory",
		regions: []sheetmerge.Region{{StartRow: 2, EndRow: 4, StartCol: 1, EndCol: 1}},
	}
	rec := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(rec, multipartUpload(t, "/merge?format=json", []byte("upload")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sheetmerge.AxisColumns, svc.req.Axis)

	var resp struct {
		Success bool          `json:"success"`
		Data    MergeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, svc.req.Sheet)
	assert.Equal(t, "Inventory", resp.Data.Sheet)
	assert.Equal(t, svc.regions, resp.Data.Regions)
}

func TestMergeHandler_UploadTooLarge(t *testing.T) {
	svc := &fakeReportService{}
	rec := httptest.NewRecorder()
	newLimitedServer(svc, 16).ServeHTTP(rec, multipartUpload(t, "/merge", bytes.Repeat([]byte("x"), 64)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, svc.uploaded)
}

func TestMergeHandler_Errors(t *testing.T) {
	testCases := map[string]struct {
		target string
		err    error
		status int
	}{
		"bad bound":       {target: "/merge?end_row=x", status: http.StatusBadRequest},
		"negative bound":  {target: "/merge?start_col=-2", status: http.StatusBadRequest},
		"unknown sheet":   {target: "/merge?sheet=Nope", err: service.ErrSheetNotFound, status: http.StatusNotFound},
		"invalid axis":    {target: "/merge?axis=diagonal", err: sheetmerge.ErrInvalidAxis, status: http.StatusBadRequest},
		"broken workbook": {target: "/merge", err: errors.New("zip: not a valid zip file"), status: http.StatusUnprocessableEntity},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeReportService{err: tc.err}
			rec := httptest.NewRecorder()
			newTestServer(svc).ServeHTTP(rec, multipartUpload(t, tc.target, []byte("upload")))

			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, decodeResponse(t, rec).Success)
		})
	}
}

func TestMergeHandler_MissingFile(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeReportService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/merge", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing workbook file", decodeResponse(t, rec).Message)
}
