package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/excelmerge/internal/domain"
	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/locvowork/excelmerge/internal/service"
	"github.com/locvowork/excelmerge/internal/service/serviceutils"
	"github.com/locvowork/excelmerge/pkg/sheetmerge"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService is the report behaviour the handlers depend on.
type ReportService interface {
	BuildFeatureReport(ctx context.Context, filter domain.FeatureFilter) ([]byte, error)
	MergeUploaded(ctx context.Context, r io.Reader, req service.MergeRequest) (*service.MergeResult, error)
}

type ReportHandler struct {
	svc ReportService
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// MergeResponse lists the regions applied to an uploaded workbook.
type MergeResponse struct {
	Sheet   string              `json:"sheet"`
	Axis    string              `json:"axis"`
	Regions []sheetmerge.Region `json:"regions"`
}

// FeatureReportHandler streams the feature report. Repeated or comma separated
// brand query values filter the report.
func (h *ReportHandler) FeatureReportHandler(c echo.Context) error {
	filter := domain.FeatureFilter{Brands: splitBrands(c.QueryParams()["brand"])}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
		}
		filter.Limit = n
	}

	data, err := h.svc.BuildFeatureReport(c.Request().Context(), filter)
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "Failed to build feature report: %v", err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
	}
	return sendWorkbook(c, "feature_report.xlsx", data)
}

// MergeHandler merges equal neighbouring cells of an uploaded workbook.
// The merged workbook is returned unless format=json asks for the region list.
func (h *ReportHandler) MergeHandler(c echo.Context) error {
	req, err := bindMergeRequest(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid merge parameters", err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing workbook file", err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Failed to read workbook file", err)
	}
	defer file.Close()

	res, err := h.svc.MergeUploaded(c.Request().Context(), file, req)
	switch {
	case errors.Is(err, service.ErrSheetNotFound):
		return serviceutils.ResponseError(c, http.StatusNotFound, "Sheet not found", err)
	case errors.Is(err, sheetmerge.ErrInvalidAxis):
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid merge axis", err)
	case err != nil:
		logger.ErrorLog(c.Request().Context(), "Failed to merge workbook: %v", err)
		return serviceutils.ResponseError(c, http.StatusUnprocessableEntity, "Failed to merge workbook", err)
	}

	if c.QueryParam("format") == "json" {
		regions := res.Regions
		if regions == nil {
			regions = []sheetmerge.Region{}
		}
		return serviceutils.ResponseSuccess(c, http.StatusOK, "Workbook merged successfully", MergeResponse{
			Sheet:   res.Sheet,
			Axis:    req.Axis,
			Regions: regions,
		})
	}
	c.Response().Header().Set("X-Merged-Regions", strconv.Itoa(len(res.Regions)))
	c.Response().Header().Set("X-Merged-Sheet", res.Sheet)
	return sendWorkbook(c, "merged_"+fileHeader.Filename, res.Workbook)
}

// UploadLimit caps the request body of upload routes. A non-positive limit
// disables the check.
func UploadLimit(maxBytes int64) echo.MiddlewareFunc {
	if maxBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.BodyLimit(fmt.Sprintf("%dB", maxBytes))
}

func (h *ReportHandler) HealthHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", nil)
}

func bindMergeRequest(c echo.Context) (service.MergeRequest, error) {
	req := service.MergeRequest{
		Sheet: c.QueryParam("sheet"),
		Axis:  c.QueryParam("axis"),
	}
	if req.Axis == "" {
		req.Axis = sheetmerge.AxisColumns
	}

	bounds := map[string]**int{
		"start_row": &req.StartRow,
		"end_row":   &req.EndRow,
		"start_col": &req.StartCol,
		"end_col":   &req.EndCol,
	}
	for name, dst := range bounds {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return req, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
		}
		*dst = &n
	}
	return req, nil
}

func splitBrands(values []string) []string {
	var brands []string
	for _, v := range values {
		for _, brand := range strings.Split(v, ",") {
			if brand = strings.TrimSpace(brand); brand != "" {
				brands = append(brands, brand)
			}
		}
	}
	return brands
}

func sendWorkbook(c echo.Context, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
