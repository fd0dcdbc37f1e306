// Command snow-processor receives ServiceNow callbacks and creates or
// updates the matching Jira Service Desk request.
package main

import (
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/app"
)

func main() {
	rt, err := lambda.NewRuntimeFromEnv(gateway.RouteSnowProcessor, app.NeedJSD)
	if err != nil {
		log.Fatalf("failed to init runtime: %v", err)
	}
	awslambda.Start(lambda.NewProxyHandler(rt, func(a *app.App) gateway.Route {
		return gateway.SnowProcessor(a.SnowInbound)
	}))
}
