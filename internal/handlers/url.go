package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/urlcheck"
	"go.uber.org/zap"
)

// Assigner is the write side of the shortener core.
type Assigner interface {
	Assign(ctx context.Context, normalizedURL string, hash shortener.URLHash) (*shortener.Assignment, error)
}

// Resolver is the read side of the shortener core.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*shortener.ShortURL, error)
}

// URLHandler serves shortening and redirects.
type URLHandler struct {
	assigner      Assigner
	resolver      Resolver
	baseURL       string
	publishRecord messaging.Publish[events.RecordCreated]
	logger        *zap.Logger
}

// NewURLHandler creates a new URL handler. Short links are built as baseURL/code.
func NewURLHandler(
	assigner Assigner,
	resolver Resolver,
	baseURL string,
	publishRecord messaging.Publish[events.RecordCreated],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		assigner:      assigner,
		resolver:      resolver,
		baseURL:       baseURL,
		publishRecord: publishRecord,
		logger:        logger,
	}
}

// CreateShortURL normalizes the submitted URL and returns its short code, creating it when needed.
func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	normalized, hash, err := urlcheck.Normalize(req.Body.URL)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	assignment, err := h.assigner.Assign(ctx, normalized, hash)
	if err != nil {
		return nil, h.assignError(err, hash)
	}

	shortURL := assignment.ShortURL

	if assignment.Outcome == shortener.OutcomeCreated {
		if err := h.publishRecord(ctx, events.NewRecordCreated(shortURL)); err != nil {
			h.logger.Warn("failed to publish record event",
				zap.String("code", string(shortURL.Code)),
				zap.Error(err),
			)
		}
	}

	full := fmt.Sprintf("%s/%s", h.baseURL, shortURL.Code)

	resp := &CreateShortURLResponse{}
	resp.Headers.Location = full
	resp.Body.Code = string(shortURL.Code)
	resp.Body.ShortURL = full
	resp.Body.OriginalURL = shortURL.OriginalURL

	return resp, nil
}

func (h *URLHandler) assignError(err error, hash shortener.URLHash) error {
	switch {
	case errors.Is(err, shortener.ErrMalformedInput):
		return huma.Error400BadRequest("invalid url")
	case errors.Is(err, shortener.ErrStoreUnavailable):
		h.logger.Error("store unavailable during assignment", zap.String("hash", string(hash)), zap.Error(err))

		return huma.Error503ServiceUnavailable("storage temporarily unavailable, please retry")
	default:
		h.logger.Error("assignment failed", zap.String("hash", string(hash)), zap.Error(err))

		return huma.Error500InternalServerError("failed to create short url, please retry")
	}
}

// RedirectToURL answers with a redirect to the original URL of a short code.
func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	shortURL, err := h.resolver.Resolve(ctx, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidCodeFormat), errors.Is(err, shortener.ErrCodeNotFound):
			return nil, huma.Error404NotFound("short url not found")
		case errors.Is(err, shortener.ErrStoreUnavailable):
			h.logger.Error("store unavailable during redirect", zap.String("code", req.Code), zap.Error(err))

			return nil, huma.Error503ServiceUnavailable("storage temporarily unavailable, please retry")
		default:
			h.logger.Error("redirect failed", zap.String("code", req.Code), zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to resolve short url")
		}
	}

	resp := &RedirectResponse{Status: redirectStatus}
	resp.Headers.Location = shortURL.OriginalURL

	return resp, nil
}
