package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/snowsync/internal/api/gateway"
)

// GatewayHandler serves one function route over fiber.
type GatewayHandler struct {
	gateway *gateway.Gateway
	route   gateway.Route
}

// NewGatewayHandler returns a new handler instance.
func NewGatewayHandler(gw *gateway.Gateway, route gateway.Route) *GatewayHandler {
	return &GatewayHandler{gateway: gw, route: route}
}

// Handle runs the route and writes the gateway response.
func (h *GatewayHandler) Handle(c *fiber.Ctx) error {
	resp := h.gateway.Serve(c.UserContext(), h.route, RequestFromFiber(c))
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	return c.Status(resp.StatusCode).SendString(resp.Body)
}

// RequestFromFiber copies the parts of a fiber request the gateway reads.
func RequestFromFiber(c *fiber.Ctx) gateway.Request {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return gateway.Request{
		Method:     c.Method(),
		Path:       c.Path(),
		Headers:    headers,
		Query:      c.Queries(),
		PathParams: c.AllParams(),
		Body:       string(c.Body()),
	}
}
