package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/auth"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/logger"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
	"github.com/pesio-ai/be-pg-salaries/internal/service"
)

const receiptField = "receiptImage"

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service        *service.SalaryService
	log            *logger.Logger
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(service *service.SalaryService, maxUploadBytes int64, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service:        service,
		log:            log.Component("http_handler"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the salary routes on mux
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/salaries", h.CreateSalary)
	mux.HandleFunc("GET /api/v1/salaries", h.ListSalaries)
	mux.HandleFunc("GET /api/v1/salaries/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/salaries/analytics", h.Analytics)
	mux.HandleFunc("GET /api/v1/salaries/export", h.Export)
	mux.HandleFunc("GET /api/v1/salaries/maintainer/{id}/summary", h.MaintainerSummary)
	mux.HandleFunc("GET /api/v1/salaries/{id}", h.GetSalary)
	mux.HandleFunc("GET /api/v1/salaries/{id}/history", h.SalaryHistory)
	mux.HandleFunc("PUT /api/v1/salaries/{id}", h.UpdateSalary)
	mux.HandleFunc("PATCH /api/v1/salaries/{id}/payment", h.RecordPayment)
	mux.HandleFunc("DELETE /api/v1/salaries/{id}", h.DeleteSalary)
}

// CreateSalary handles create salary HTTP requests. The body is JSON or
// multipart form data carrying an optional receipt image.
func (h *HTTPHandler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req service.CreateSalaryRequest
	if isMultipart(r) {
		form, receipt, err := h.parseMultipart(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if receipt != nil {
			defer receipt.close()
			req.Receipt = receipt.upload
		}
		req.MaintainerID = form.Get("maintainerId")
		req.BranchID = form.Get("branchId")
		req.Month = form.Get("month")
		req.Year = salary.RawNumber(strings.TrimSpace(form.Get("year")))
		req.ComponentsInput = componentsFromForm(form)
		req.Notes = formString(form, "notes")
		if form.Get("amount") != "" {
			p := paymentFromForm(form)
			req.Payment = &p
		}
	} else if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	req.PGID = user.PGID
	req.CreatedBy = user.UserID

	view, err := h.service.CreateSalary(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// GetSalary handles get salary HTTP requests
func (h *HTTPHandler) GetSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetSalary(r.Context(), r.PathValue("id"), user.PGID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListSalaries handles list salaries HTTP requests
func (h *HTTPHandler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListSalaries(r.Context(), listRequest(r, user))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateSalary handles update salary HTTP requests
func (h *HTTPHandler) UpdateSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req service.UpdateSalaryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ID = r.PathValue("id")
	req.PGID = user.PGID
	req.UpdatedBy = user.UserID

	view, err := h.service.UpdateSalary(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RecordPayment handles record payment HTTP requests. The body is JSON or
// multipart form data carrying an optional receipt image.
func (h *HTTPHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req service.RecordPaymentRequest
	if isMultipart(r) {
		form, receipt, err := h.parseMultipart(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if receipt != nil {
			defer receipt.close()
			req.Receipt = receipt.upload
		}
		req.PaymentInput = paymentFromForm(form)
	} else if err := h.decodeJSON(w, r, &req.PaymentInput); err != nil {
		h.writeError(w, r, err)
		return
	}

	req.SalaryID = r.PathValue("id")
	req.PGID = user.PGID
	req.PaidBy = user.UserID

	view, err := h.service.RecordPayment(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SalaryHistory handles salary audit trail HTTP requests
func (h *HTTPHandler) SalaryHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	entries, err := h.service.SalaryHistory(r.Context(), r.PathValue("id"), user.PGID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// DeleteSalary handles delete salary HTTP requests
func (h *HTTPHandler) DeleteSalary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSalary(r.Context(), r.PathValue("id"), user.PGID, user.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "salary deleted"})
}

// Stats handles salary statistics HTTP requests
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), listRequest(r, user))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Analytics handles yearly salary analytics HTTP requests
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	analytics, err := h.service.Analytics(r.Context(), user.PGID, q.Get("branchId"), q.Get("year"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// MaintainerSummary handles maintainer salary summary HTTP requests
func (h *HTTPHandler) MaintainerSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	summary, err := h.service.MaintainerSummary(r.Context(), user.PGID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Export handles salary XLSX export HTTP requests
func (h *HTTPHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	f, err := h.service.ExportSalaries(r.Context(), listRequest(r, user))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="salaries.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to write salary export")
	}
}

func (h *HTTPHandler) caller(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "authorization is required"))
		return nil, false
	}
	return user, true
}

func (h *HTTPHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidInput, "request body is required")
		}
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request body")
	}
	return nil
}

type receiptPart struct {
	upload *client.ReceiptUpload
	close  func() error
}

func (h *HTTPHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (formValues, *receiptPart, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid multipart body, receipts are limited to %d bytes", h.maxUploadBytes))
	}
	form := formValues(r.MultipartForm.Value)

	file, header, err := r.FormFile(receiptField)
	if err == http.ErrMissingFile {
		return form, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid receipt image")
	}

	contentType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType, _, _ = mime.ParseMediaType(http.DetectContentType(sniff[:n]))
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read receipt image")
		}
	}

	return form, &receiptPart{
		upload: &client.ReceiptUpload{
			OriginalName: header.Filename,
			ContentType:  contentType,
			Size:         header.Size,
			Body:         file,
		},
		close: file.Close,
	}, nil
}

type formValues map[string][]string

func (f formValues) Get(key string) string {
	if v := f[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formString(f formValues, key string) *string {
	if v := f.Get(key); v != "" {
		return &v
	}
	return nil
}

func componentsFromForm(f formValues) service.ComponentsInput {
	in := service.ComponentsInput{
		BaseSalary: salary.RawNumber(f.Get("baseSalary")),
		Bonus:      salary.RawNumber(f.Get("bonus")),
	}
	if f.Get("overtime.hours") != "" || f.Get("overtime.rate") != "" || f.Get("overtime.amount") != "" {
		in.Overtime = &service.OvertimeInput{
			Hours:  salary.RawNumber(f.Get("overtime.hours")),
			Rate:   salary.RawNumber(f.Get("overtime.rate")),
			Amount: salary.RawNumber(f.Get("overtime.amount")),
		}
	}
	if f.Get("deductions.other") != "" {
		in.Deductions = &service.DeductionsInput{Other: salary.RawNumber(f.Get("deductions.other"))}
	}
	return in
}

func paymentFromForm(f formValues) service.PaymentInput {
	return service.PaymentInput{
		Amount:        salary.RawNumber(f.Get("amount")),
		PaymentMethod: f.Get("paymentMethod"),
		TransactionID: formString(f, "transactionId"),
		PaymentDate:   formString(f, "paymentDate"),
		Notes:         formString(f, "paymentNotes"),
	}
}

func listRequest(r *http.Request, user *auth.UserContext) *service.ListSalariesRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return &service.ListSalariesRequest{
		PGID:         user.PGID,
		BranchID:     q.Get("branchId"),
		MaintainerID: q.Get("maintainerId"),
		Month:        q.Get("month"),
		Year:         q.Get("year"),
		Status:       q.Get("status"),
		Page:         page,
		PageSize:     pageSize,
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "multipart/form-data"
}

type errorBody struct {
	Code    errors.ErrorCode  `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody{Code: errors.Code(err), Message: err.Error()}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Fields = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		body.Message = "internal server error"
	}

	writeJSON(w, status, map[string]any{"success": false, "error": body})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status < http.StatusBadRequest {
		data = map[string]any{"success": true, "data": data}
	}
	json.NewEncoder(w).Encode(data)
}
