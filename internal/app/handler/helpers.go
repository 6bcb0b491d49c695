// Package handler serves the report pages, their exports and the JSON
// endpoint over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/middleware"
)

// ErrForbidden is the body of a rejected JSON request.
const ErrForbidden = "Invalid or missing token."

// reportSlug returns the slug of a "{slug}-report" path segment.
func reportSlug(req *http.Request) (string, bool) {
	slug, ok := strings.CutSuffix(chi.URLParam(req, "report"), "-report")
	return slug, ok && slug != ""
}

func (h *ReportHandler) jsonAllowed(req *http.Request) bool {
	return middleware.TokenMatches(h.jsonToken, middleware.RequestToken(req)) || middleware.IsElevated(req.Context())
}

// writeReportError maps a service error to a status code.
func (h *ReportHandler) writeReportError(res http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownReport):
		http.Error(res, "report not found", http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("report timed out", zap.String("report", slug))
		http.Error(res, http.StatusText(http.StatusGatewayTimeout), http.StatusGatewayTimeout)
	default:
		h.logger.Error("cannot build report", zap.String("report", slug), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
