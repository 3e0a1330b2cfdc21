package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// ErrLockHeld is returned by Acquire while another owner holds an unexpired lock.
var ErrLockHeld = errors.New("lock already held")

// LockAPI is the subset of the DynamoDB client the locker uses.
type LockAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// lockRecord is one lock item. ExpiresAt is in Unix seconds so the table's TTL
// can reap abandoned locks.
type lockRecord struct {
	ID         string `dynamodbav:"id"`
	Owner      string `dynamodbav:"owner"`
	AcquiredAt string `dynamodbav:"acquiredAt"`
	ExpiresAt  int64  `dynamodbav:"expiresAt"`
}

// Locker takes leases on named resources with conditional writes. A lease that
// is never released lapses at its expiry.
type Locker struct {
	client LockAPI
	table  string
	now    func() time.Time
	logger *zap.Logger
}

func NewLocker(client LockAPI, table string, logger *zap.Logger) *Locker {
	return &Locker{client: client, table: table, now: time.Now, logger: logger}
}

func lockKey(resource string) string {
	return "lock#" + resource
}

// Acquire takes the lease on resource for ttl.
func (l *Locker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (*Lock, error) {
	now := l.now()
	expiresAt := now.Add(ttl)

	item, err := attributevalue.MarshalMap(lockRecord{
		ID:         lockKey(resource),
		Owner:      owner,
		AcquiredAt: now.UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id")).
		Or(expression.Name("expiresAt").LessThan(expression.Value(now.Unix())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(l.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			l.logger.Debug("Lock already held", zap.String("resource", resource), zap.String("owner", owner))
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, resource)
		}
		return nil, mapError("acquire lock", err)
	}

	l.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("owner", owner),
		zap.Duration("ttl", ttl),
	)
	return &Lock{locker: l, resource: resource, owner: owner, expiresAt: expiresAt}, nil
}

func (l *Locker) release(ctx context.Context, resource, owner string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"id": lockKey(resource)})
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("owner").Equal(expression.Value(owner))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build release condition: %w", err)
	}

	_, err = l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(l.table),
		Key:                       key,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			// Expired and taken over, or already gone.
			l.logger.Warn("Lock no longer owned", zap.String("resource", resource), zap.String("owner", owner))
			return nil
		}
		return mapError("release lock", err)
	}
	return nil
}

// Lock is a held lease.
type Lock struct {
	locker    *Locker
	resource  string
	owner     string
	expiresAt time.Time
}

// Release gives the lease back. Releasing a lease someone else has since taken
// is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	return l.locker.release(ctx, l.resource, l.owner)
}

// ExpiresAt is when the lease lapses.
func (l *Lock) ExpiresAt() time.Time {
	return l.expiresAt
}
