package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/export"
	"flightmatch/internal/logging"
	"flightmatch/internal/schools"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireExport(); err != nil {
		log.Fatalf("%v", err)
	}

	awsCfg, err := db.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	clients := db.NewClients(awsCfg)

	store := schools.NewStore(clients.Dynamo, cfg.TableName, cfg.StateIndex)
	h := export.NewExporter(store, clients.S3, cfg.ExportBucket, cfg.ExportPrefix, logging.NewJSONSink(os.Stdout, cfg.SlogLevel()))
	lambda.Start(h.Handle)
}
