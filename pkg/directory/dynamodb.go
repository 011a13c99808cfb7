package directory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoStore reads the allow-list from a DynamoDB table keyed by
// group_id (partition) and place_id (sort). Every call scans the table, so
// edits made by the admin tooling are visible immediately.
type DynamoStore struct {
	client    dynamodb.ScanAPIClient
	tableName string
}

// NewDynamoStore creates a store over an existing client
func NewDynamoStore(client dynamodb.ScanAPIClient, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// NewDynamoStoreFromEnv builds a client from the default AWS credential chain.
// endpoint overrides the service URL, e.g. for DynamoDB Local.
func NewDynamoStoreFromEnv(ctx context.Context, tableName, region, endpoint string) (*DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoStore(client, tableName), nil
}

// Refs scans every row of the table.
func (s *DynamoStore) Refs(ctx context.Context) ([]PlaceRef, error) {
	if s.client == nil {
		return nil, fmt.Errorf("DynamoDB client not initialized")
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:            aws.String(s.tableName),
		ProjectionExpression: aws.String("group_id, place_id"),
	})

	var refs []PlaceRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.tableName, err)
		}

		var rows []PlaceRef
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("failed to unmarshal directory rows: %w", err)
		}
		refs = append(refs, rows...)
	}
	return refs, nil
}

// ListAllCuratedPlaceIDs implements Store.
func (s *DynamoStore) ListAllCuratedPlaceIDs(ctx context.Context) ([]string, error) {
	refs, err := s.Refs(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(refs), nil
}

// FilterToKnownIDs implements Store.
func (s *DynamoStore) FilterToKnownIDs(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}
	known, err := s.ListAllCuratedPlaceIDs(ctx)
	if err != nil {
		return nil, err
	}
	return intersect(known, candidates), nil
}
