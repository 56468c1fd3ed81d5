// Command hello-handler is the Lambda entry point of the workshop API.
//
// Build it for the provided.al2023 runtime:
//
//	GOOS=linux GOARCH=arm64 go build -tags lambda.norpc -o lambda/helloHandler/bootstrap ./cmd/hello-handler
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/dineshpithiya/cdk-workshop/internal/api"
	"github.com/dineshpithiya/cdk-workshop/internal/handler"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	h := handler.New(api.Workshop(), logger)
	lambda.Start(h.Handle)
}
