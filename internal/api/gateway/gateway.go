// Package gateway applies the inbound HTTP contract shared by every function:
// media type, method and JSON body checks, then shapes the
// {isBase64Encoded, statusCode, headers, body} response.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const jsonMediaType = "application/json"

// Request is a transport-neutral inbound call.
type Request struct {
	Method     string
	Path       string
	Headers    map[string]string
	Query      map[string]string
	PathParams map[string]string
	Body       string
}

// Header looks up a header by case-insensitive name.
func (r Request) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Response mirrors the API Gateway proxy response shape.
type Response struct {
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
}

// Call is a request that passed the contract checks.
type Call struct {
	Request
	// Body is the decoded JSON object; nil when the route does not decode or
	// the payload was JSON null.
	Body map[string]any
}

// HandlerFunc produces the success fields merged into {ok:true,...}.
type HandlerFunc func(ctx context.Context, call *Call) (map[string]any, error)

// Route describes one function's contract.
type Route struct {
	Name        string
	Methods     []string
	RequireJSON bool
	DecodeBody  bool
	Handle      HandlerFunc
}

func (r Route) allows(method string) bool {
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Gateway runs routes and converts every outcome into a Response.
type Gateway struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates a gateway.
func New(logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{logger: logger, metrics: metrics}
}

// Serve runs route against req. It never returns an error: failures and
// panics become {ok:false,error} bodies.
func (g *Gateway) Serve(ctx context.Context, route Route, req Request) (resp Response) {
	start := time.Now()
	logger := g.logger.With(zap.String("route", route.Name), zap.String("method", req.Method))
	ctx, span := observability.Tracer().Start(ctx, route.Name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			resp = g.failure(ctx, logger, route, req, errorutil.NewInternalError(fmt.Errorf("panic: %v", r)))
		}
		g.metrics.RecordRequest(ctx, route.Name, req.Method, resp.StatusCode, time.Since(start))
	}()

	logger.Info("request received")
	call, err := g.admit(route, req)
	if err != nil {
		return g.failure(ctx, logger, route, req, err)
	}

	result, err := route.Handle(ctx, call)
	if err != nil {
		return g.failure(ctx, logger, route, req, err)
	}

	body := map[string]any{"ok": true}
	for k, v := range result {
		body[k] = v
	}
	return respond(http.StatusOK, body)
}

// admit enforces, in order, the media type, the method and the JSON body.
func (g *Gateway) admit(route Route, req Request) (*Call, error) {
	if route.RequireJSON {
		contentType, _ := req.Header("Content-Type")
		if !isJSON(contentType) {
			return nil, errorutil.NewUnsupportedMediaType(contentType)
		}
	}
	if !route.allows(req.Method) {
		return nil, errorutil.NewMethodNotAllowed(req.Method)
	}

	call := &Call{Request: req}
	if !route.DecodeBody {
		return call, nil
	}
	body, err := decodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	call.Body = body
	return call, nil
}

func (g *Gateway) failure(ctx context.Context, logger *zap.Logger, route Route, req Request, err error) Response {
	domainErr := errorutil.ToDomainError(err)
	g.metrics.RecordError(ctx, route.Name, req.Method, domainErr.Code)

	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", domainErr.Code), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("code", domainErr.Code), zap.Error(err))
	}
	return ErrorResponse(err)
}

// ErrorResponse renders err as {ok:false,error} with its kind's status.
func ErrorResponse(err error) Response {
	return respond(errorutil.ToDomainError(err).HTTPStatus, map[string]any{
		"ok":    false,
		"error": errorutil.PublicMessage(err),
	})
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.ToLower(mediaType) == jsonMediaType
}

// decodeBody keeps numbers as json.Number so integer checks see the literal.
func decodeBody(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, errorutil.NewValidationError(fmt.Sprintf("`body` is not valid JSON: %s", raw))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errorutil.NewValidationError(fmt.Sprintf("`body` is not valid JSON: %s", raw))
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, errorutil.NewValidationError(fmt.Sprintf("`body` is not a JSON object: %s", raw))
	}
}

func respond(status int, body map[string]any) Response {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"ok":false,"error":"response encoding failed"}`)
	}
	return Response{
		IsBase64Encoded: false,
		StatusCode:      status,
		Headers:         map[string]string{"Content-Type": jsonMediaType},
		Body:            strings.TrimSuffix(buf.String(), "\n"),
	}
}
