package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
// Email is the partition key, so identity uniqueness is a property of the
// table itself rather than of application code.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

// Create inserts a new account. The conditional write makes concurrent
// creates for the same email lose with domain.ErrConflict instead of
// overwriting the winner.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("account already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordFailedAttempt atomically bumps failed_attempts and stamps
// last_attempt_at.
func (r *AccountRepo) RecordFailedAttempt(ctx context.Context, email string) error {
	return recordFailedAttempt(ctx, r.client, r.tableName, strKey("email", email))
}

// ResetAttempts zeroes failed_attempts after the cooldown has elapsed.
func (r *AccountRepo) ResetAttempts(ctx context.Context, email string) error {
	return resetAttempts(ctx, r.client, r.tableName, strKey("email", email))
}
