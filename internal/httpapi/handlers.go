package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"backtest-review/internal/backend"
	"backtest-review/internal/reporting"
	"backtest-review/internal/service"
	"backtest-review/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response formats of the review endpoint.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatSVG      = "svg"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type snapshotResponse struct {
	BacktestID string    `json:"backtest_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type curvePointResponse struct {
	Seq     uint32  `json:"seq"`
	Date    string  `json:"date,omitempty"`
	Balance float64 `json:"balance"`
}

type curveResponse struct {
	BacktestID string               `json:"backtest_id"`
	Points     []curvePointResponse `json:"points"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReview(w http.ResponseWriter, r *http.Request) {
	backtestID, userID, ok := s.ids(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON, FormatMarkdown, FormatCSV, FormatSVG:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Unsupported format"})
		return
	}

	rev, err := s.svc.Review(r.Context(), userID, backtestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rev.Stale {
		w.Header().Set("Warning", `110 - "Response is Stale"`)
	}

	switch format {
	case FormatJSON:
		writeJSON(w, http.StatusOK, rev)
	case FormatMarkdown:
		writeText(w, "text/markdown; charset=utf-8", reporting.RenderMarkdown(rev))
	case FormatCSV:
		render := reporting.RenderTradesCSV
		if r.URL.Query().Get("table") == "metrics" {
			render = reporting.RenderMetricsCSV
		}
		out, err := render(rev)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeText(w, "text/csv; charset=utf-8", out)
	case FormatSVG:
		out, err := reporting.RenderChartSVG(rev, r.URL.Query().Get("chart"))
		if err != nil {
			if errors.Is(err, reporting.ErrUnknownChart) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Unknown chart"})
				return
			}
			s.writeError(w, r, err)
			return
		}
		writeText(w, "image/svg+xml", out)
	}
}

func (s *server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	backtestID, userID, ok := s.ids(w, r)
	if !ok {
		return
	}

	points, err := s.svc.EquityCurve(r.Context(), userID, backtestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := curveResponse{BacktestID: backtestID, Points: make([]curvePointResponse, len(points))}
	for i, p := range points {
		resp.Points[i] = curvePointResponse{Seq: p.Seq, Date: p.Date, Balance: p.Balance}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleArchived(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !validID(userID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid user id"})
		return
	}

	list, err := s.svc.Archived(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]snapshotResponse, len(list))
	for i, snap := range list {
		resp[i] = snapshotResponse{
			BacktestID: snap.BacktestID,
			Name:       snap.Name,
			Status:     snap.Status,
			FetchedAt:  snap.FetchedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ids validates the backtest path parameter and the user_id query parameter.
func (s *server) ids(w http.ResponseWriter, r *http.Request) (backtestID, userID string, ok bool) {
	backtestID = chi.URLParam(r, "backtestID")
	if !validID(backtestID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid backtest id"})
		return "", "", false
	}
	userID = r.URL.Query().Get("user_id")
	if !validID(userID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid user id"})
		return "", "", false
	}
	return backtestID, userID, true
}

// validID accepts positive decimal integers.
func validID(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && n > 0
}

// writeError maps service errors to HTTP responses.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= 500 {
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func statusFor(err error) (int, string) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		return apiErr.StatusCode, apiErr.Message
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.Message
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Backend timed out"
	case errors.Is(err, service.ErrBackend):
		return http.StatusBadGateway, "Backend unavailable"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"Internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
