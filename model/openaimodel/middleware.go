package openaimodel

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/braintrustdata/prompteval-go/logger"
)

// maxLoggedBody bounds how much of each body LoggingMiddleware logs.
const maxLoggedBody = 2048

// LoggingMiddleware logs every request and response at debug level, bodies
// included. Bodies are restored so the SDK can still read them.
func LoggingMiddleware(l logger.Logger) option.Middleware {
	l = logger.OrDiscard(l)
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		if req.Body != nil {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				l.Debug("openai request body unreadable", "error", err)
				return next(req)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			l.Debug("openai request",
				"method", req.Method,
				"url", req.URL.String(),
				"body", clip(body))
		}

		resp, err := next(req)
		if err != nil {
			l.Debug("openai request failed",
				"url", req.URL.String(),
				"error", err,
				"duration", time.Since(start))
			return resp, err
		}

		args := []any{
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"duration", time.Since(start),
		}
		if resp.Body != nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			resp.Body = io.NopCloser(bytes.NewReader(body))
			if rerr == nil {
				args = append(args, "body", clip(body))
			}
		}
		l.Debug("openai response", args...)
		return resp, nil
	}
}

func clip(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
