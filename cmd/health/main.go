package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"flightmatch/internal/handlers"
)

func main() {
	lambda.Start(handlers.Health)
}
