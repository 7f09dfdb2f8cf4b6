package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/order-backend/internal/api"
	"github.com/example/order-backend/internal/bootstrap"
)

var handler *api.LambdaHandler

func init() {
	app, err := bootstrap.New(context.Background(), os.Getenv("ORDERS_CONFIG"))
	if err != nil {
		log.Fatalf("[Lambda API] Failed to initialize: %v", err)
	}
	handler = api.NewLambdaHandler(app.Routes, app.Logger.Named("lambda"))
}

func main() {
	lambda.Start(handler.Handle)
}
