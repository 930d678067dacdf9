package schools

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoClient is an in-memory DynamoAPI for tests. Items are keyed by
// schoolId; Query matches the single key condition value against "state".
type MockDynamoClient struct {
	mu sync.Mutex

	Items map[string]map[string]types.AttributeValue

	// PageSize limits items per Query/Scan page when positive.
	PageSize int
	// UnprocessedRounds makes the next N BatchWriteItem calls hand back their
	// last request as unprocessed.
	UnprocessedRounds int
	// ThrottleRounds makes the next N BatchWriteItem calls fail with
	// ProvisionedThroughputExceededException.
	ThrottleRounds int

	GetItemError        error
	QueryError          error
	ScanError           error
	BatchWriteItemError error

	GetItemCalls        int
	QueryCalls          int
	ScanCalls           int
	BatchWriteItemCalls int
	LastQuery           *dynamodb.QueryInput
}

func NewMockDynamoClient() *MockDynamoClient {
	return &MockDynamoClient{Items: map[string]map[string]types.AttributeValue{}}
}

// Seed marshals and stores schools.
func (m *MockDynamoClient) Seed(schools ...School) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range schools {
		item, err := attributevalue.MarshalMap(s)
		if err != nil {
			return err
		}
		m.Items[s.SchoolID] = item
	}
	return nil
}

func (m *MockDynamoClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetItemCalls++
	if m.GetItemError != nil {
		return nil, m.GetItemError
	}
	id, ok := params.Key["schoolId"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("missing schoolId key")
	}
	return &dynamodb.GetItemOutput{Item: m.Items[id.Value]}, nil
}

func (m *MockDynamoClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	m.LastQuery = params
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	if len(params.ExpressionAttributeValues) != 1 {
		return nil, fmt.Errorf("expected one key condition value, got %d", len(params.ExpressionAttributeValues))
	}
	var want string
	for _, v := range params.ExpressionAttributeValues {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("key condition value is not a string")
		}
		want = s.Value
	}

	matching := m.sortedKeys(func(item map[string]types.AttributeValue) bool {
		st, ok := item["state"].(*types.AttributeValueMemberS)
		return ok && st.Value == want
	})
	items, last := m.page(matching, params.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

func (m *MockDynamoClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.ScanError != nil {
		return nil, m.ScanError
	}
	items, last := m.page(m.sortedKeys(nil), params.ExclusiveStartKey)
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

func (m *MockDynamoClient) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchWriteItemCalls++
	if m.BatchWriteItemError != nil {
		return nil, m.BatchWriteItemError
	}
	if m.ThrottleRounds > 0 {
		m.ThrottleRounds--
		return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("Rate of requests exceeds the allowed throughput")}
	}

	unprocessed := map[string][]types.WriteRequest{}
	for table, requests := range params.RequestItems {
		if len(requests) > 25 {
			return nil, fmt.Errorf("batch of %d exceeds 25 requests", len(requests))
		}
		if m.UnprocessedRounds > 0 && len(requests) > 0 {
			unprocessed[table] = requests[len(requests)-1:]
			requests = requests[:len(requests)-1]
		}
		for _, r := range requests {
			if r.PutRequest == nil {
				continue
			}
			id, ok := r.PutRequest.Item["schoolId"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("put request without schoolId")
			}
			m.Items[id.Value] = r.PutRequest.Item
		}
	}
	if m.UnprocessedRounds > 0 {
		m.UnprocessedRounds--
	}
	return &dynamodb.BatchWriteItemOutput{UnprocessedItems: unprocessed}, nil
}

func (m *MockDynamoClient) sortedKeys(keep func(map[string]types.AttributeValue) bool) []string {
	keys := make([]string, 0, len(m.Items))
	for k, item := range m.Items {
		if keep == nil || keep(item) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func (m *MockDynamoClient) page(keys []string, startKey map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	if start, ok := startKey["schoolId"].(*types.AttributeValueMemberS); ok {
		idx, _ := slices.BinarySearch(keys, start.Value)
		if idx < len(keys) && keys[idx] == start.Value {
			idx++
		}
		keys = keys[idx:]
	}

	var last map[string]types.AttributeValue
	if m.PageSize > 0 && len(keys) > m.PageSize {
		keys = keys[:m.PageSize]
		last = map[string]types.AttributeValue{
			"schoolId": &types.AttributeValueMemberS{Value: keys[len(keys)-1]},
		}
	}

	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, m.Items[k])
	}
	return items, last
}
