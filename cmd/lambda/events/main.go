package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/order-backend/internal/bootstrap"
	"github.com/example/order-backend/internal/infrastructure/eventbridge"
)

var trigger *eventbridge.Trigger

func init() {
	app, err := bootstrap.New(context.Background(), os.Getenv("ORDERS_CONFIG"))
	if err != nil {
		log.Fatalf("[Lambda Events] Failed to initialize: %v", err)
	}
	trigger = eventbridge.NewTrigger(app.Registry, app.Config.Bus.Name, app.Logger.Named("events"))
}

func main() {
	lambda.Start(trigger.Handle)
}
