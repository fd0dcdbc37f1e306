// Command jira-processor receives Jira Service Desk webhooks and creates or
// updates the matching ServiceNow incident.
package main

import (
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/app"
)

func main() {
	rt, err := lambda.NewRuntimeFromEnv(gateway.RouteJiraProcessor, app.NeedJSD | app.NeedSnow)
	if err != nil {
		log.Fatalf("failed to init runtime: %v", err)
	}
	awslambda.Start(lambda.NewProxyHandler(rt, func(a *app.App) gateway.Route {
		return gateway.JiraProcessor(a.JiraInbound)
	}))
}
