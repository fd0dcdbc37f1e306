// Command s3-presign issues presigned upload forms for the inbound bucket.
package main

import (
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/app"
)

func main() {
	rt, err := lambda.NewRuntimeFromEnv(gateway.RouteS3Presign, app.NeedStorage)
	if err != nil {
		log.Fatalf("failed to init runtime: %v", err)
	}
	awslambda.Start(lambda.NewProxyHandler(rt, func(a *app.App) gateway.Route {
		return gateway.S3Presign(a.Presign)
	}))
}
