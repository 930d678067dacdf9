package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadAWSConfig loads the default credential chain pinned to region.
// An empty region leaves the SDK's own resolution in place.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	// Uses Lambda's execution role creds automatically
	return config.LoadDefaultConfig(ctx, opts...)
}

func NewDynamoClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// Clients bundles the service clients built from one aws.Config.
type Clients struct {
	Dynamo  *dynamodb.Client
	Bedrock *bedrockruntime.Client
	SNS     *sns.Client
	S3      *s3.Client
	SSM     *ssm.Client
}

func NewClients(cfg aws.Config) Clients {
	return Clients{
		Dynamo:  dynamodb.NewFromConfig(cfg),
		Bedrock: bedrockruntime.NewFromConfig(cfg),
		SNS:     sns.NewFromConfig(cfg),
		S3:      s3.NewFromConfig(cfg),
		SSM:     ssm.NewFromConfig(cfg),
	}
}
