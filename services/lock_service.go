package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"vibin_matcher/utils"
)

// ErrLockNotHeld is returned by Release when the caller does not own the lock.
var ErrLockNotHeld = errors.New("lock not held by this owner")

// DefaultLockLease is how long a lock row stays valid before another owner
// may take it over.
const DefaultLockLease = 15 * time.Minute

type lockItem struct {
	LockKey    string `dynamodbav:"lockKey"`
	Owner      string `dynamodbav:"ownerToken"`
	AcquiredAt int64  `dynamodbav:"acquiredAt"`
	ExpiresAt  int64  `dynamodbav:"expiresAt"`
}

// DynamoLocker is an advisory lock backed by conditional writes on a
// DynamoDB table keyed by lockKey. Each locker has its own owner token, so a
// second TryAcquire from the same locker fails while the first is held.
type DynamoLocker struct {
	Dynamo *DynamoService
	Table  string
	Lease  time.Duration
	Owner  string
	Clock  func() time.Time
	Log    logr.Logger
}

// NewDynamoLocker returns a locker with a fresh owner token.
func NewDynamoLocker(ds *DynamoService, table string, lease time.Duration, log logr.Logger) *DynamoLocker {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	return &DynamoLocker{
		Dynamo: ds,
		Table:  table,
		Lease:  lease,
		Owner:  uuid.NewString(),
		Clock:  time.Now,
		Log:    log,
	}
}

// TryAcquire takes the lock if it is free or its lease ran out.
func (l *DynamoLocker) TryAcquire(ctx context.Context, key string) (bool, error) {
	now := l.Clock()
	item := lockItem{
		LockKey:    key,
		Owner:      l.Owner,
		AcquiredAt: now.Unix(),
		ExpiresAt:  now.Add(l.Lease).Unix(),
	}
	err := l.Dynamo.PutItemIf(ctx, l.Table, item,
		"attribute_not_exists(lockKey) OR expiresAt < :now",
		map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	)
	if err == nil {
		return true, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		l.Log.V(1).Info("lock busy", "lockKey", key,
			"holder", utils.ExtractString(ccf.Item, "ownerToken"),
			"expiresAt", utils.ExtractInt(ccf.Item, "expiresAt"))
		return false, nil
	}
	return false, fmt.Errorf("try acquire %q: %w", key, err)
}

// Release deletes the lock row if this locker owns it.
func (l *DynamoLocker) Release(ctx context.Context, key string) error {
	err := l.Dynamo.DeleteItemIf(ctx, l.Table, stringKey("lockKey", key),
		"ownerToken = :owner",
		map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: l.Owner},
		},
	)
	if IsConditionFailed(err) {
		return fmt.Errorf("release %q: %w", key, ErrLockNotHeld)
	}
	return err
}
