package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/handlers"
	"flightmatch/internal/inquiry"
	"flightmatch/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireInquiry(); err != nil {
		log.Fatalf("%v", err)
	}

	awsCfg, err := db.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	notifier := inquiry.NewNotifier(sns.NewFromConfig(awsCfg), cfg.InquiryTopicARN)
	h := handlers.NewInquiryHandler(notifier, logging.NewJSONSink(os.Stdout, cfg.SlogLevel()))
	lambda.Start(h.Handle)
}
