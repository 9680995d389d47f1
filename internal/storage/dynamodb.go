// Package storage provides state, credential, and report persistence for the sync service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ReportEntry is one stored cycle report.
type ReportEntry struct {
	// Body is the serialized report.
	Body string

	// CycleID is the cycle's ULID. Lexical order is chronological order.
	CycleID string

	// Failed is the number of records that failed.
	Failed int

	// FinishedAt is when the cycle ended.
	FinishedAt time.Time

	// MerchantID is the Clover merchant the cycle synced.
	MerchantID string

	// Phase is the cycle's terminal phase.
	Phase string

	// Written is the number of records created or updated.
	Written int
}

// ReportStore keeps cycle report history in DynamoDB, partitioned by merchant
// and sorted by cycle ID.
type ReportStore struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// tableName is the name of the DynamoDB table.
	tableName string
}

// Save stores a report entry.
func (s *ReportStore) Save(ctx context.Context, entry ReportEntry) error {
	if entry.MerchantID == "" {
		return errors.New("merchant ID is required")
	}
	if entry.CycleID == "" {
		return errors.New("cycle ID is required")
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"merchant_id": &types.AttributeValueMemberS{Value: entry.MerchantID},
			"cycle_id":    &types.AttributeValueMemberS{Value: entry.CycleID},
			"phase":       &types.AttributeValueMemberS{Value: entry.Phase},
			"finished_at": &types.AttributeValueMemberS{Value: entry.FinishedAt.UTC().Format(time.RFC3339)},
			"written":     &types.AttributeValueMemberN{Value: strconv.Itoa(entry.Written)},
			"failed":      &types.AttributeValueMemberN{Value: strconv.Itoa(entry.Failed)},
			"report":      &types.AttributeValueMemberS{Value: entry.Body},
		},
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return nil
}

// Report returns a single report entry, or false if it does not exist.
func (s *ReportStore) Report(ctx context.Context, merchantID string, cycleID string) (ReportEntry, bool, error) {
	if merchantID == "" || cycleID == "" {
		return ReportEntry{}, false, errors.New("merchant ID and cycle ID are required")
	}

	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"merchant_id": &types.AttributeValueMemberS{Value: merchantID},
			"cycle_id":    &types.AttributeValueMemberS{Value: cycleID},
		},
	})
	if err != nil {
		return ReportEntry{}, false, fmt.Errorf("getting item from DynamoDB: %w", err)
	}

	if output.Item == nil {
		return ReportEntry{}, false, nil
	}

	entry, err := parseReportEntry(output.Item)
	if err != nil {
		return ReportEntry{}, false, fmt.Errorf("parsing item: %w", err)
	}

	return entry, true, nil
}

// Latest returns up to limit of the merchant's most recent report entries, newest first.
func (s *ReportStore) Latest(ctx context.Context, merchantID string, limit int) ([]ReportEntry, error) {
	if merchantID == "" {
		return nil, errors.New("merchant ID is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	output, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("merchant_id = :mid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":mid": &types.AttributeValueMemberS{Value: merchantID},
		},
		Limit:            aws.Int32(int32(limit)),
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	results := make([]ReportEntry, 0, len(output.Items))
	for _, item := range output.Items {
		entry, err := parseReportEntry(item)
		if err != nil {
			return nil, fmt.Errorf("parsing item: %w", err)
		}
		results = append(results, entry)
	}

	return results, nil
}

func parseReportEntry(item map[string]types.AttributeValue) (ReportEntry, error) {
	entry := ReportEntry{}

	if v, ok := item["merchant_id"].(*types.AttributeValueMemberS); ok {
		entry.MerchantID = v.Value
	}
	if v, ok := item["cycle_id"].(*types.AttributeValueMemberS); ok {
		entry.CycleID = v.Value
	}
	if v, ok := item["phase"].(*types.AttributeValueMemberS); ok {
		entry.Phase = v.Value
	}
	if v, ok := item["report"].(*types.AttributeValueMemberS); ok {
		entry.Body = v.Value
	}
	if v, ok := item["written"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return entry, fmt.Errorf("parsing written: %w", err)
		}
		entry.Written = n
	}
	if v, ok := item["failed"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return entry, fmt.Errorf("parsing failed: %w", err)
		}
		entry.Failed = n
	}
	if v, ok := item["finished_at"].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339, v.Value)
		if err != nil {
			return entry, fmt.Errorf("parsing finished_at: %w", err)
		}
		entry.FinishedAt = t
	}

	return entry, nil
}

// DynamoDBAPI defines the DynamoDB operations used by the report store.
type DynamoDBAPI interface {
	// GetItem retrieves an item from DynamoDB.
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)

	// PutItem stores an item in DynamoDB.
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)

	// Query retrieves items matching a key condition from DynamoDB.
	Query(
		ctx context.Context,
		params *dynamodb.QueryInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.QueryOutput, error)
}

// NewReportStore creates a new DynamoDB-backed report store.
func NewReportStore(client DynamoDBAPI, tableName string) (*ReportStore, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	return &ReportStore{
		client:    client,
		tableName: tableName,
	}, nil
}
