package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-otp-auth/internal/domain"
)

// PendingVerificationRepo manages the TTL-bound holding area for unconfirmed
// signups. Email is the partition key and expires_at is the table's TTL
// attribute, so expired entries are purged by the store without an explicit
// delete.
type PendingVerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPendingVerificationRepo(client *dynamodb.Client, tableName string) *PendingVerificationRepo {
	return &PendingVerificationRepo{client: client, tableName: tableName}
}

// Replace writes the entry for p.Email, discarding any previous one. PutItem
// on the partition key is an atomic insert-or-replace: concurrent signups for
// the same email converge to exactly one entry (last writer wins), with no
// window in which two entries exist.
func (r *PendingVerificationRepo) Replace(ctx context.Context, p *domain.PendingVerification) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByEmail returns the pending entry for email. Callers must still check
// Expired: TTL deletion lags the expiry instant.
func (r *PendingVerificationRepo) GetByEmail(ctx context.Context, email string) (*domain.PendingVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending verification not found: %w", domain.ErrNotFound)
	}
	var p domain.PendingVerification
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PendingVerificationRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	return err
}

// RecordFailedAttempt atomically bumps failed_attempts and stamps
// last_attempt_at on the pending entry.
func (r *PendingVerificationRepo) RecordFailedAttempt(ctx context.Context, email string) error {
	return recordFailedAttempt(ctx, r.client, r.tableName, strKey("email", email))
}

// ResetAttempts zeroes failed_attempts after the cooldown has elapsed.
func (r *PendingVerificationRepo) ResetAttempts(ctx context.Context, email string) error {
	return resetAttempts(ctx, r.client, r.tableName, strKey("email", email))
}
