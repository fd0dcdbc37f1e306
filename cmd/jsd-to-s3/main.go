// Command jsd-to-s3 copies Jira Service Desk attachments into the outbound
// bucket.
package main

import (
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/app"
)

func main() {
	rt, err := lambda.NewRuntimeFromEnv(gateway.RouteJSDToS3, app.NeedJSD | app.NeedStorage)
	if err != nil {
		log.Fatalf("failed to init runtime: %v", err)
	}
	awslambda.Start(lambda.NewProxyHandler(rt, func(a *app.App) gateway.Route {
		return gateway.JSDToS3(a.Attachments)
	}))
}
