package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/samber/lo"
	"github.com/serroba/golinks/internal/links"
	"go.uber.org/zap"
)

// APIHandler serves the JSON API for managing links.
type APIHandler struct {
	service  *links.Service
	resolver *links.Resolver
	baseURL  string
	logger   *zap.Logger
}

func NewAPIHandler(service *links.Service, resolver *links.Resolver, baseURL string, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		service:  service,
		resolver: resolver,
		baseURL:  baseURL,
		logger:   logger,
	}
}

func (h *APIHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	all, err := h.service.List(ctx)
	if err != nil {
		return nil, h.apiError(err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = lo.Map(all, func(l links.Link, _ int) LinkBody { return toLinkBody(l) })

	return resp, nil
}

func (h *APIHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*LinkResponse, error) {
	if err := h.service.Create(ctx, req.Body.Name, req.Body.URL); err != nil {
		return nil, h.apiError(err)
	}

	return h.linkResponse(ctx, req.Body.Name)
}

func (h *APIHandler) UpdateLink(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	if err := h.service.Update(ctx, req.Body.OriginalName, req.Body.Name, req.Body.URL); err != nil {
		return nil, h.apiError(err)
	}

	return h.linkResponse(ctx, req.Body.Name)
}

func (h *APIHandler) DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*struct{}, error) {
	if err := h.service.Delete(ctx, req.Name); err != nil {
		return nil, h.apiError(err)
	}

	return nil, nil
}

// Resolve reports where a path would redirect without counting a visit.
func (h *APIHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	res, err := h.resolver.Preview(ctx, req.Name, req.Query)
	if err != nil {
		return nil, h.apiError(err)
	}

	resp := &ResolveResponse{}
	resp.Body.Found = res.Found
	resp.Body.Name = res.Name
	resp.Body.Target = res.Target
	resp.Body.SuggestedName = res.SuggestedName

	return resp, nil
}

func (h *APIHandler) linkResponse(ctx context.Context, name string) (*LinkResponse, error) {
	link, err := h.service.Get(ctx, name)
	if err != nil {
		return nil, h.apiError(err)
	}

	resp := &LinkResponse{Body: toLinkBody(*link)}
	resp.Location = h.baseURL + "/" + links.QuotePath(link.Name)

	return resp, nil
}

// apiError maps domain errors to HTTP problems. Anything unexpected is
// logged and hidden behind a 500.
func (h *APIHandler) apiError(err error) error {
	switch {
	case errors.Is(err, links.ErrNotFound):
		return huma.Error404NotFound("link not found")
	case errors.Is(err, links.ErrDuplicateName):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, links.ErrUpdateConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, links.ErrInvalidName), errors.Is(err, links.ErrInvalidURLScheme):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		h.logger.Error("api request failed", zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
