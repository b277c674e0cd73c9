package server

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"acoustid/core/apierr"
	"acoustid/core/format"
	"acoustid/core/lookup"
	"acoustid/core/params"
	"acoustid/core/submit"
	"acoustid/logger"
)

// LookupService answers validated lookup requests.
type LookupService interface {
	Lookup(ctx context.Context, p *params.LookupParams, userAgent, ip string) (*lookup.Response, error)
}

// SubmissionService stores submissions and reports their status.
type SubmissionService interface {
	Submit(ctx context.Context, p *params.SubmitParams) (*submit.StatusResponse, error)
	Status(ctx context.Context, ids []int64) (*submit.StatusResponse, error)
}

// RateLimiter enforces the request rate of a client.
type RateLimiter interface {
	Check(ctx context.Context, ip string, client params.Client) error
}

// APIHandler 处理 /v2 下的所有请求
type APIHandler struct {
	parser      *params.Parser
	limiter     RateLimiter
	lookups     LookupService
	submissions SubmissionService
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(parser *params.Parser, limiter RateLimiter, lookups LookupService, submissions SubmissionService) *APIHandler {
	return &APIHandler{
		parser:      parser,
		limiter:     limiter,
		lookups:     lookups,
		submissions: submissions,
	}
}

type handleFunc func(ctx context.Context, r *http.Request, values url.Values) (any, error)

// serve runs the steps shared by every endpoint: the output format is
// negotiated first, then the endpoint validates its parameters, checks the
// rate limit and does its work.
func (h *APIHandler) serve(name string, handle handleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			logger.Warn("[API] failed to parse form", logger.String("endpoint", name), logger.ErrorField(err))
		}

		f, err := format.Parse(r.Form)
		if err != nil {
			writeError(w, name, f, err)
			return
		}

		payload, err := handle(r.Context(), r, r.Form)
		if err != nil {
			writeError(w, name, f, err)
			return
		}

		body, err := format.OK(payload)
		if err != nil {
			writeError(w, name, f, err)
			return
		}
		if err := f.Write(w, http.StatusOK, body); err != nil {
			logger.Warn("[API] failed to write response", logger.String("endpoint", name), logger.ErrorField(err))
		}
	}
}

func writeError(w http.ResponseWriter, endpoint string, f format.Format, err error) {
	apiErr, ok := apierr.As(err)
	if ok {
		logger.Warn("[API] request rejected",
			logger.String("endpoint", endpoint),
			logger.Int("code", apiErr.Code),
			logger.String("message", apiErr.Message))
	} else {
		logger.Error("[API] request failed", logger.String("endpoint", endpoint), logger.ErrorField(err))
	}
	if err := f.Write(w, apiErr.Status, format.Error(apiErr)); err != nil {
		logger.Warn("[API] failed to write error response", logger.ErrorField(err))
	}
}

// LookupHandler 处理指纹查询
func (h *APIHandler) LookupHandler() http.HandlerFunc {
	return h.serve("lookup", func(ctx context.Context, r *http.Request, values url.Values) (any, error) {
		p, err := h.parser.ParseLookup(ctx, values)
		if err != nil {
			return nil, err
		}
		ip := clientIP(r)
		if err := h.limiter.Check(ctx, ip, p.Client); err != nil {
			return nil, err
		}
		return h.lookups.Lookup(ctx, p, r.UserAgent(), ip)
	})
}

// SubmitHandler 处理指纹提交
func (h *APIHandler) SubmitHandler() http.HandlerFunc {
	return h.serve("submit", func(ctx context.Context, r *http.Request, values url.Values) (any, error) {
		p, err := h.parser.ParseSubmit(ctx, values)
		if err != nil {
			return nil, err
		}
		if err := h.limiter.Check(ctx, clientIP(r), p.Client); err != nil {
			return nil, err
		}
		return h.submissions.Submit(ctx, p)
	})
}

// SubmissionStatusHandler 查询提交状态
func (h *APIHandler) SubmissionStatusHandler() http.HandlerFunc {
	return h.serve("submission_status", func(ctx context.Context, r *http.Request, values url.Values) (any, error) {
		p, err := h.parser.ParseSubmissionStatus(ctx, values)
		if err != nil {
			return nil, err
		}
		if err := h.limiter.Check(ctx, clientIP(r), p.Client); err != nil {
			return nil, err
		}
		return h.submissions.Status(ctx, p.IDs)
	})
}

// clientIP prefers the address reported by the proxy in front of us.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
