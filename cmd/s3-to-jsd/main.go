// Command s3-to-jsd attaches objects dropped in the inbound bucket to their
// Jira Service Desk request.
package main

import (
	"context"
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/app"
	"github.com/spec-kit/snowsync/internal/service"
)

func main() {
	rt, err := lambda.NewRuntimeFromEnv("s3-to-jsd", app.NeedJSD | app.NeedStorage)
	if err != nil {
		log.Fatalf("failed to init runtime: %v", err)
	}
	awslambda.Start(lambda.NewS3Handler(rt, func(a *app.App) func(context.Context, []service.ObjectRecord) service.RelayReport {
		return a.Attachments.RelayToJSD
	}))
}
