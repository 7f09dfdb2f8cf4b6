// Package dynamo implements repository.Repository on a DynamoDB table.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/order-backend/internal/repository"
	"github.com/example/order-backend/internal/retry"
	"go.uber.org/zap"
)

// API is the subset of *dynamodb.Client used by the repository.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Repository stores T as one item per entity, keyed by a single string
// partition attribute.
type Repository[T any] struct {
	client  API
	table   string
	keyAttr string
	keyOf   func(*T) string
	retry   *retry.Executor
	log     *zap.Logger
}

var _ repository.Repository[struct{}] = (*Repository[struct{}])(nil)

// NewRepository returns a repository over table. keyAttr names the
// partition key attribute and keyOf reads it from an entity.
func NewRepository[T any](client API, table, keyAttr string, keyOf func(*T) string, exec *retry.Executor, log *zap.Logger) *Repository[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[T]{
		client:  client,
		table:   table,
		keyAttr: keyAttr,
		keyOf:   keyOf,
		retry:   exec,
		log:     log.With(zap.String("table", table)),
	}
}

func (r *Repository[T]) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		r.keyAttr: &types.AttributeValueMemberS{Value: id},
	}
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	out, err := retry.Value(ctx, r.retry, "dynamodb.GetItem", func(ctx context.Context) (*dynamodb.GetItemOutput, error) {
		return r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(r.table),
			Key:       r.key(id),
		})
	})
	if err != nil {
		r.log.Error("failed to get item", zap.String("operation", "findById"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to get item %s: %w", id, err))
	}
	if out.Item == nil {
		return nil, nil
	}

	var entity T
	if err := attributevalue.UnmarshalMap(out.Item, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item %s: %w", id, err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindAll(ctx context.Context, params repository.PageParams) (*repository.Page[T], error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.table),
		Limit:     limit(params.Limit),
	}
	startKey, err := decodeKey(params.ContinuationToken)
	if err != nil {
		return nil, err
	}
	input.ExclusiveStartKey = startKey

	out, err := retry.Value(ctx, r.retry, "dynamodb.Scan", func(ctx context.Context) (*dynamodb.ScanOutput, error) {
		return r.client.Scan(ctx, input)
	})
	if err != nil {
		r.log.Error("failed to scan table", zap.String("operation", "findAll"), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to scan table %s: %w", r.table, err))
	}
	return r.page(out.Items, out.LastEvaluatedKey)
}

// Save writes entity unconditionally, replacing any item with the same key.
func (r *Repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	id := r.keyOf(entity)
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item %s: %w", id, err)
	}

	err = r.retry.Do(ctx, "dynamodb.PutItem", func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.table),
			Item:      item,
		})
		return err
	})
	if err != nil {
		r.log.Error("failed to put item", zap.String("operation", "save"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to put item %s: %w", id, err))
	}
	r.log.Debug("item saved", zap.String("operation", "save"), zap.String("id", id))
	return entity, nil
}

// Update renders patch as a SET expression on an existing item. A failed
// patch condition yields repository.ErrConflict and a missing item yields
// repository.ErrNotFound; neither is retried.
func (r *Repository[T]) Update(ctx context.Context, id string, patch repository.Patch) (*T, error) {
	input, err := r.updateInput(id, patch)
	if err != nil {
		return nil, err
	}

	out, err := retry.Value(ctx, r.retry, "dynamodb.UpdateItem", func(ctx context.Context) (*dynamodb.UpdateItemOutput, error) {
		out, err := r.client.UpdateItem(ctx, input)
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if condErr.Item == nil {
				return nil, retry.Permanent(repository.ErrNotFound)
			}
			return nil, retry.Permanent(repository.ErrConflict)
		}
		return out, err
	})
	if err != nil {
		r.log.Error("failed to update item", zap.String("operation", "update"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to update item %s: %w", id, err))
	}

	var entity T
	if err := attributevalue.UnmarshalMap(out.Attributes, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item %s: %w", id, err)
	}
	r.log.Debug("item updated", zap.String("operation", "update"), zap.String("id", id))
	return &entity, nil
}

func (r *Repository[T]) updateInput(id string, patch repository.Patch) (*dynamodb.UpdateItemInput, error) {
	assignments := patch.Assignments()
	names := map[string]string{"#pk": r.keyAttr}
	values := make(map[string]types.AttributeValue, len(assignments)+1)
	sets := make([]string, 0, len(assignments))

	for i, a := range assignments {
		name, value := fmt.Sprintf("#f%d", i), fmt.Sprintf(":f%d", i)
		av, err := attributevalue.Marshal(a.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", a.Attribute, err)
		}
		names[name] = a.Attribute
		values[value] = av
		sets = append(sets, name+" = "+value)
	}
	if len(sets) == 0 {
		return nil, errors.New("update has no assignments")
	}

	condition := "attribute_exists(#pk)"
	if cond := patch.Condition(); cond != nil {
		av, err := attributevalue.Marshal(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal condition %s: %w", cond.Attribute, err)
		}
		names["#cond"] = cond.Attribute
		values[":cond"] = av
		condition += " AND #cond = :cond"
	}

	return &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.table),
		Key:                                 r.key(id),
		UpdateExpression:                    aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:                 aws.String(condition),
		ExpressionAttributeNames:            names,
		ExpressionAttributeValues:           values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	err := r.retry.Do(ctx, "dynamodb.DeleteItem", func(ctx context.Context) error {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.table),
			Key:       r.key(id),
		})
		return err
	})
	if err != nil {
		r.log.Error("failed to delete item", zap.String("operation", "delete"), zap.String("id", id), zap.Error(err))
		return repository.StoreFailure(fmt.Errorf("failed to delete item %s: %w", id, err))
	}
	r.log.Debug("item deleted", zap.String("operation", "delete"), zap.String("id", id))
	return nil
}

func (r *Repository[T]) QueryByIndex(ctx context.Context, index string, cond repository.KeyCondition, params repository.PageParams) (*repository.Page[T], error) {
	value, err := attributevalue.Marshal(cond.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key condition: %w", err)
	}
	startKey, err := decodeKey(params.ContinuationToken)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#k = :k"),
		ExpressionAttributeNames:  map[string]string{"#k": cond.Attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{":k": value},
		ExclusiveStartKey:         startKey,
		Limit:                     limit(params.Limit),
	}

	out, err := retry.Value(ctx, r.retry, "dynamodb.Query", func(ctx context.Context) (*dynamodb.QueryOutput, error) {
		return r.client.Query(ctx, input)
	})
	if err != nil {
		r.log.Error("failed to query index", zap.String("operation", "queryByIndex"), zap.String("index", index), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to query index %s: %w", index, err))
	}
	return r.page(out.Items, out.LastEvaluatedKey)
}

func (r *Repository[T]) page(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) (*repository.Page[T], error) {
	entities := make([]T, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &entities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	token, err := encodeKey(lastKey)
	if err != nil {
		return nil, err
	}
	return &repository.Page[T]{Items: entities, ContinuationToken: token, Count: len(entities)}, nil
}

func limit(n int) *int32 {
	if n <= 0 {
		return nil
	}
	return aws.Int32(int32(n))
}
