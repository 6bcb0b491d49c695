package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/metrics"
	"github.com/atinyakov/go-unveil/internal/report"
)

// RenderTimeout bounds one report render.
const RenderTimeout = 10 * time.Second

type ReportHandler struct {
	service   service.ReportServiceIface
	logger    *zap.Logger
	jsonToken string
}

func NewReport(s service.ReportServiceIface, l *zap.Logger, jsonToken string) *ReportHandler {
	return &ReportHandler{
		service:   s,
		logger:    l,
		jsonToken: jsonToken,
	}
}

// Menu lists every report.
func (h *ReportHandler) Menu(res http.ResponseWriter, req *http.Request) {
	infos := h.service.Reports()
	items := make([]report.MenuItem, 0, len(infos))
	for _, i := range infos {
		items = append(items, report.MenuItem{Label: i.Label, Icon: i.Icon, URL: i.URL, Order: i.Order})
	}

	h.writeHTML(res, func(buf *bytes.Buffer) error {
		return report.RenderMenu(buf, report.Menu{Title: "Unveil", Items: items})
	})
}

// Index renders the HTML report, or a download when ?export is set.
func (h *ReportHandler) Index(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), RenderTimeout)
	defer cancel()

	slug, ok := reportSlug(req)
	if !ok {
		http.NotFound(res, req)
		return
	}

	var format report.Format
	if v := req.URL.Query().Get("export"); v != "" {
		f, ok := report.ParseFormat(v)
		if !ok {
			http.Error(res, "unsupported export format", http.StatusBadRequest)
			return
		}
		format = f
	}

	r, err := h.service.Report(ctx, slug)
	if err != nil {
		h.writeReportError(res, slug, err)
		return
	}

	if format != "" {
		var buf bytes.Buffer
		if err := report.Export(&buf, format, r.Info.Label, r.Rows); err != nil {
			h.logger.Error("cannot export report", zap.String("report", slug), zap.Error(err))
			http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		metrics.ReportRenders.WithLabelValues(slug, string(format)).Inc()

		res.Header().Set("Content-Type", format.ContentType())
		res.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="unveil-%s-report.%s"`, slug, format.Extension()))
		res.WriteHeader(http.StatusOK)
		if _, err := res.Write(buf.Bytes()); err != nil {
			h.logger.Debug("write failed", zap.Error(err))
		}
		return
	}

	metrics.ReportRenders.WithLabelValues(slug, "html").Inc()
	h.writeHTML(res, func(buf *bytes.Buffer) error {
		return report.RenderPage(buf, report.Page{
			Title:      r.Info.Label,
			Icon:       r.Info.Icon,
			ResultsURL: r.Info.URL + "results/",
			Rows:       r.Rows,
		})
	})
}

// Results renders only the results table.
func (h *ReportHandler) Results(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), RenderTimeout)
	defer cancel()

	slug, ok := reportSlug(req)
	if !ok {
		http.NotFound(res, req)
		return
	}
	r, err := h.service.Report(ctx, slug)
	if err != nil {
		h.writeReportError(res, slug, err)
		return
	}

	metrics.ReportRenders.WithLabelValues(slug, "results").Inc()
	h.writeHTML(res, func(buf *bytes.Buffer) error {
		return report.RenderResults(buf, r.Rows)
	})
}

// JSON returns {"results": [...]} to token holders and elevated admins.
func (h *ReportHandler) JSON(res http.ResponseWriter, req *http.Request) {
	if !h.jsonAllowed(req) {
		http.Error(res, ErrForbidden, http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), RenderTimeout)
	defer cancel()

	slug, ok := reportSlug(req)
	if !ok {
		http.NotFound(res, req)
		return
	}
	r, err := h.service.Report(ctx, slug)
	if err != nil {
		h.writeReportError(res, slug, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, r.Rows); err != nil {
		h.logger.Error("cannot encode report", zap.String("report", slug), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	metrics.ReportRenders.WithLabelValues(slug, string(report.FormatJSON)).Inc()

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(buf.Bytes()); err != nil {
		h.logger.Debug("write failed", zap.Error(err))
	}
}

// Ping checks the content store.
func (h *ReportHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()
	if err := h.service.PingContext(ctx); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func (h *ReportHandler) writeHTML(res http.ResponseWriter, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.logger.Error("cannot render page", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(buf.Bytes()); err != nil {
		h.logger.Debug("write failed", zap.Error(err))
	}
}
