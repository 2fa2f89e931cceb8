package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo keeps tables in memory and evaluates the handful of condition
// expressions the services issue.
type fakeDynamo struct {
	mu     sync.Mutex
	keys   map[string]string
	tables map[string]map[string]map[string]types.AttributeValue

	transactions []*dynamodb.TransactWriteItemsInput
	updates      []*dynamodb.UpdateItemInput
	getCalls     int
}

func newFakeDynamo(keys map[string]string) *fakeDynamo {
	return &fakeDynamo{keys: keys, tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func attrN(item map[string]types.AttributeValue, name string) int64 {
	if v, ok := item[name].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

func (f *fakeDynamo) keyOf(table string, item map[string]types.AttributeValue) string {
	var parts []string
	for _, name := range strings.Split(f.keys[table], ",") {
		parts = append(parts, attrS(item, name))
	}
	return strings.Join(parts, "#")
}

func (f *fakeDynamo) put(table string, item map[string]types.AttributeValue) {
	if f.tables[table] == nil {
		f.tables[table] = make(map[string]map[string]types.AttributeValue)
	}
	f.tables[table][f.keyOf(table, item)] = item
}

func (f *fakeDynamo) lookup(table string, key map[string]types.AttributeValue) map[string]types.AttributeValue {
	return f.tables[table][f.keyOf(table, key)]
}

func (f *fakeDynamo) holds(cond *string, existing, values map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	switch *cond {
	case "attribute_not_exists(lockKey) OR expiresAt < :now":
		return existing == nil || attrN(existing, "expiresAt") < attrN(values, ":now")
	case "ownerToken = :owner":
		return existing != nil && attrS(existing, "ownerToken") == attrS(values, ":owner")
	case "attribute_exists(entryId) AND #tier < :tier":
		return existing != nil && attrN(existing, "tier") < attrN(values, ":tier")
	case "attribute_exists(entryId)":
		return existing != nil
	case "attribute_not_exists(matchId)":
		return existing == nil
	}
	panic(fmt.Sprintf("fakeDynamo: unsupported condition %q", *cond))
}

func conditionFailed(existing map[string]types.AttributeValue) error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed"), Item: existing}
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return &dynamodb.GetItemOutput{Item: f.lookup(*in.TableName, in.Key)}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.lookup(*in.TableName, in.Item)
	if !f.holds(in.ConditionExpression, existing, in.ExpressionAttributeValues) {
		return nil, conditionFailed(existing)
	}
	f.put(*in.TableName, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.lookup(*in.TableName, in.Key)
	if !f.holds(in.ConditionExpression, existing, in.ExpressionAttributeValues) {
		return nil, conditionFailed(nil)
	}
	delete(f.tables[*in.TableName], f.keyOf(*in.TableName, in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// UpdateItem only understands the tier update.
func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	existing := f.lookup(*in.TableName, in.Key)
	if !f.holds(in.ConditionExpression, existing, in.ExpressionAttributeValues) {
		return nil, conditionFailed(nil)
	}
	existing["tier"] = in.ExpressionAttributeValues[":tier"]
	return &dynamodb.UpdateItemOutput{}, nil
}

// Query only understands "userId = :userId".
func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := attrS(in.ExpressionAttributeValues, ":userId")
	var items []map[string]types.AttributeValue
	for _, item := range f.sorted(*in.TableName) {
		if attrS(item, "userId") == want {
			items = append(items, item)
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.sorted(*in.TableName)
	if in.FilterExpression != nil {
		if *in.FilterExpression != "contains(#users, :userId)" {
			panic(fmt.Sprintf("fakeDynamo: unsupported filter %q", *in.FilterExpression))
		}
		want := attrS(in.ExpressionAttributeValues, ":userId")
		var kept []map[string]types.AttributeValue
		for _, item := range items {
			users, _ := item[in.ExpressionAttributeNames["#users"]].(*types.AttributeValueMemberL)
			if users == nil {
				continue
			}
			for _, u := range users.Value {
				if s, ok := u.(*types.AttributeValueMemberS); ok && s.Value == want {
					kept = append(kept, item)
					break
				}
			}
		}
		items = kept
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeDynamo) sorted(table string) []map[string]types.AttributeValue {
	keys := make([]string, 0, len(f.tables[table]))
	for k := range f.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, f.tables[table][k])
	}
	return items
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, in)

	for _, action := range in.TransactItems {
		switch {
		case action.Put != nil:
			existing := f.lookup(*action.Put.TableName, action.Put.Item)
			if !f.holds(action.Put.ConditionExpression, existing, action.Put.ExpressionAttributeValues) {
				return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
			}
		case action.Delete != nil:
			existing := f.lookup(*action.Delete.TableName, action.Delete.Key)
			if !f.holds(action.Delete.ConditionExpression, existing, action.Delete.ExpressionAttributeValues) {
				return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
			}
		}
	}
	for _, action := range in.TransactItems {
		switch {
		case action.Put != nil:
			f.put(*action.Put.TableName, action.Put.Item)
		case action.Delete != nil:
			delete(f.tables[*action.Delete.TableName], f.keyOf(*action.Delete.TableName, action.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
