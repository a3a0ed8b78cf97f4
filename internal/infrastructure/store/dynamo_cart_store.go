package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the cart store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoCartStore stores one item per session, keyed by session_id.
type DynamoCartStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// dynamoCart represents the DynamoDB item structure
type dynamoCart struct {
	SessionID string `dynamodbav:"session_id"`
	Payload   string `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NewDynamoClient builds a client from the default AWS credential chain
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func NewDynamoCartStore(client DynamoAPI, tableName string) *DynamoCartStore {
	return &DynamoCartStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func (s *DynamoCartStore) Load(ctx context.Context, sessionID string) ([]byte, bool, error) {
	if sessionID == "" {
		return nil, false, ErrEmptySessionID
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            sessionKey(sessionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cart: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var dc dynamoCart
	if err := attributevalue.UnmarshalMap(result.Item, &dc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return []byte(dc.Payload), true, nil
}

func (s *DynamoCartStore) Save(ctx context.Context, sessionID string, payload []byte) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	av, err := attributevalue.MarshalMap(dynamoCart{
		SessionID: sessionID,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	// Overwrite whatever is there
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cart: %w", err)
	}
	return nil
}

func (s *DynamoCartStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"session_id": &types.AttributeValueMemberS{Value: sessionID},
	}
}
