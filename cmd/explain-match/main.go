package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/handlers"
	"flightmatch/internal/logging"
	"flightmatch/internal/match"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireExplain(); err != nil {
		log.Fatalf("%v", err)
	}

	awsCfg, err := db.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	// Resolved once per cold start.
	modelID, err := cfg.ResolveModelID(ctx, ssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Fatalf("resolve model id: %v", err)
	}

	gateway := match.NewGateway(bedrockruntime.NewFromConfig(awsCfg), modelID)
	h := handlers.NewExplainHandler(gateway, logging.NewJSONSink(os.Stdout, cfg.SlogLevel()))

	lambda.Start(h.Handle)
}
