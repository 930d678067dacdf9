package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/handlers"
	"flightmatch/internal/logging"
	"flightmatch/internal/schools"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireSchools(); err != nil {
		log.Fatalf("%v", err)
	}

	client, err := db.NewDynamoClient(ctx, cfg.Region)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	store := schools.NewStore(client, cfg.TableName, cfg.StateIndex)
	h := handlers.NewSchoolsHandler(store, logging.NewJSONSink(os.Stdout, cfg.SlogLevel()))
	lambda.Start(h.Get)
}
