package lambda

import (
	"context"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/app"
	"github.com/spec-kit/snowsync/internal/service"
)

// ProxyHandler is the signature lambda.Start expects for API Gateway.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// S3Handler is the signature lambda.Start expects for bucket notifications.
type S3Handler func(ctx context.Context, event events.S3Event) error

// RouteFunc selects a function's route from the built App.
type RouteFunc func(a *app.App) gateway.Route

// RelayFunc selects the relay direction from the built App.
type RelayFunc func(a *app.App) func(ctx context.Context, records []service.ObjectRecord) service.RelayReport

// NewProxyHandler serves route for API Gateway proxy events. Bootstrap
// failures are answered with {ok:false,error} and status 500.
func NewProxyHandler(rt *Runtime, route RouteFunc) ProxyHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		a, err := rt.App(ctx)
		if err != nil {
			return ToProxyResponse(gateway.ErrorResponse(err)), nil
		}
		resp := a.Gateway.Serve(ctx, route(a), FromProxyRequest(req))
		return ToProxyResponse(resp), nil
	}
}

// NewS3Handler relays every record of a bucket notification.
func NewS3Handler(rt *Runtime, relay RelayFunc) S3Handler {
	return func(ctx context.Context, event events.S3Event) error {
		a, err := rt.App(ctx)
		if err != nil {
			return err
		}
		records := ObjectRecords(event)
		report := relay(a)(ctx, records)
		a.Logger.Info("bucket event processed",
			zap.Int("records", len(records)),
			zap.Int("relayed", report.Relayed),
			zap.Int("failed", report.Failed))
		return nil
	}
}

// FromProxyRequest converts an API Gateway proxy request.
func FromProxyRequest(req events.APIGatewayProxyRequest) gateway.Request {
	headers := make(map[string]string, len(req.Headers)+len(req.MultiValueHeaders))
	for k, v := range req.MultiValueHeaders {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}

	query := make(map[string]string, len(req.QueryStringParameters))
	for k, v := range req.MultiValueQueryStringParameters {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	for k, v := range req.QueryStringParameters {
		query[k] = v
	}

	return gateway.Request{
		Method:     req.HTTPMethod,
		Path:       req.Path,
		Headers:    headers,
		Query:      query,
		PathParams: req.PathParameters,
		Body:       req.Body,
	}
}

// ToProxyResponse converts a gateway response.
func ToProxyResponse(resp gateway.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		IsBase64Encoded: resp.IsBase64Encoded,
		StatusCode:      resp.StatusCode,
		Headers:         resp.Headers,
		Body:            resp.Body,
	}
}

// ObjectRecords extracts bucket and key from every record. Keys stay URL
// encoded; the relay decodes them.
func ObjectRecords(event events.S3Event) []service.ObjectRecord {
	records := make([]service.ObjectRecord, 0, len(event.Records))
	for _, r := range event.Records {
		key := r.S3.Object.Key
		if key == "" && r.S3.Object.URLDecodedKey != "" {
			key = url.QueryEscape(r.S3.Object.URLDecodedKey)
		}
		records = append(records, service.ObjectRecord{Bucket: r.S3.Bucket.Name, Key: key})
	}
	return records
}
