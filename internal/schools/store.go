package schools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("school not found")

const (
	maxBatchSize     = 25
	maxBatchAttempts = 5
)

type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type Store struct {
	ddb        DynamoAPI
	table      string
	stateIndex string
	// backoff is the pause before retrying unprocessed batch items.
	backoff func(attempt int) time.Duration
}

func NewStore(ddb DynamoAPI, table, stateIndex string) *Store {
	return &Store{
		ddb:        ddb,
		table:      table,
		stateIndex: stateIndex,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * 50 * time.Millisecond
		},
	}
}

func (s *Store) Table() string { return s.table }

func (s *Store) Get(ctx context.Context, schoolID string) (*School, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"schoolId": &ddbtypes.AttributeValueMemberS{Value: schoolID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", s.table, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var school School
	if err := attributevalue.UnmarshalMap(out.Item, &school); err != nil {
		return nil, fmt.Errorf("unmarshal school %s: %w", schoolID, err)
	}
	return &school, nil
}

// List returns the schools in state via the state index, or every school
// when state is empty.
func (s *Store) List(ctx context.Context, state string) ([]School, error) {
	if strings.TrimSpace(state) != "" {
		return s.ListByState(ctx, state)
	}
	return s.ListAll(ctx)
}

func (s *Store) ListByState(ctx context.Context, state string) ([]School, error) {
	keyCond := expression.Key("state").Equal(expression.Value(state))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build state query: %w", err)
	}

	var all []School
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(s.stateIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb query %s/%s: %w", s.table, s.stateIndex, err)
		}

		page, err := unmarshalSchools(out.Items)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return all, nil
}

func (s *Store) ListAll(ctx context.Context) ([]School, error) {
	var all []School
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := s.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan %s: %w", s.table, err)
		}

		page, err := unmarshalSchools(out.Items)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return all, nil
}

func unmarshalSchools(items []map[string]ddbtypes.AttributeValue) ([]School, error) {
	page := make([]School, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
		return nil, fmt.Errorf("unmarshal schools: %w", err)
	}
	return page, nil
}

// BatchResult summarises a PutBatch call.
type BatchResult struct {
	Written     int
	Unprocessed int
}

// PutBatch writes schools in chunks of 25. Items DynamoDB reports as
// unprocessed are resent with backoff; whatever is left after the last
// attempt is counted in Unprocessed.
func (s *Store) PutBatch(ctx context.Context, schools []School) (BatchResult, error) {
	var res BatchResult
	for start := 0; start < len(schools); start += maxBatchSize {
		end := min(start+maxBatchSize, len(schools))

		requests := make([]ddbtypes.WriteRequest, 0, end-start)
		for _, school := range schools[start:end] {
			item, err := attributevalue.MarshalMap(school)
			if err != nil {
				return res, fmt.Errorf("marshal school %s: %w", school.SchoolID, err)
			}
			requests = append(requests, ddbtypes.WriteRequest{
				PutRequest: &ddbtypes.PutRequest{Item: item},
			})
		}

		left, err := s.writeChunk(ctx, requests)
		if err != nil {
			return res, err
		}
		res.Written += len(requests) - left
		res.Unprocessed += left
	}
	return res, nil
}

func (s *Store) writeChunk(ctx context.Context, requests []ddbtypes.WriteRequest) (int, error) {
	pending := map[string][]ddbtypes.WriteRequest{s.table: requests}
	for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
		out, err := s.ddb.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		switch {
		case isThrottle(err):
			// whole chunk stays pending
		case err != nil:
			return 0, fmt.Errorf("dynamodb batch write %s: %w", s.table, err)
		case len(out.UnprocessedItems[s.table]) == 0:
			return 0, nil
		default:
			pending = out.UnprocessedItems
		}
		if attempt == maxBatchAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return len(pending[s.table]), ctx.Err()
		case <-time.After(s.backoff(attempt)):
		}
	}
	return len(pending[s.table]), nil
}

func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return true
	}
	return false
}
