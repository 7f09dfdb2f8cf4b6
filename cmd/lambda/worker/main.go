package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/order-backend/internal/bootstrap"
	"github.com/example/order-backend/internal/infrastructure/sqs"
)

var worker *sqs.Worker

func init() {
	app, err := bootstrap.New(context.Background(), os.Getenv("ORDERS_CONFIG"))
	if err != nil {
		log.Fatalf("[Lambda Worker] Failed to initialize: %v", err)
	}
	worker = sqs.NewWorker(app.Processor, app.Logger.Named("worker"))
}

func main() {
	lambda.Start(worker.Handle)
}
