package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/internal/domain/repository"
)

// batchWriteLimit is the most requests one BatchWriteItem call accepts.
const batchWriteLimit = 25

type taskRecord struct {
	UserID      string    `dynamodbav:"userId"`
	SK          string    `dynamodbav:"SK"`
	EntityType  string    `dynamodbav:"entityType"`
	TabID       string    `dynamodbav:"tabId"`
	TaskID      string    `dynamodbav:"taskId"`
	Text        string    `dynamodbav:"text"`
	Description string    `dynamodbav:"description"`
	Completed   bool      `dynamodbav:"completed"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
	UpdatedAt   time.Time `dynamodbav:"updatedAt"`
}

func toTaskRecord(t *entity.Task) taskRecord {
	return taskRecord{
		UserID:      t.UserID,
		SK:          taskSortKey(t.Key()),
		EntityType:  entityTask,
		TabID:       t.TabID,
		TaskID:      t.TaskID,
		Text:        t.Text,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (rec taskRecord) toEntity() entity.Task {
	return entity.Task{
		UserID:      rec.UserID,
		TabID:       rec.TabID,
		TaskID:      rec.TaskID,
		Text:        rec.Text,
		Description: rec.Description,
		Completed:   rec.Completed,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func decodeTask(item map[string]types.AttributeValue) (*entity.Task, error) {
	var rec taskRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}
	t := rec.toEntity()
	return &t, nil
}

type taskRepo struct{ s *Store }

func (r *taskRepo) Put(ctx context.Context, t *entity.Task) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(toTaskRecord(t))
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.s.dataTable),
		Item:      item,
	})
	return err
}

func (r *taskRepo) Get(ctx context.Context, userID string, key entity.TaskKey) (_ *entity.Task, err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "GetItem", start, err) }(time.Now())

	out, err := r.s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.s.dataTable),
		Key:            dataKey(userID, taskSortKey(key)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeTask(out.Item)
}

// ListByTab follows LastEvaluatedKey until the prefix query is exhausted.
func (r *taskRepo) ListByTab(ctx context.Context, userID, tabID string) (_ []entity.Task, err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "Query", start, err) }(time.Now())

	keyCond := expression.Key(attrUserID).Equal(expression.Value(userID)).
		And(expression.Key(attrSortKey).BeginsWith(tabPrefix(tabID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	p := dynamodb.NewQueryPaginator(r.s.api, &dynamodb.QueryInput{
		TableName:                 aws.String(r.s.dataTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
	tasks := make([]entity.Task, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			t, err := decodeTask(item)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *t)
		}
	}
	return tasks, nil
}

func (r *taskRepo) Update(ctx context.Context, userID string, key entity.TaskKey, patch entity.TaskPatch, now time.Time) (_ *entity.Task, err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "UpdateItem", start, err) }(time.Now())

	update := expression.Set(expression.Name(attrUpdatedAt), expression.Value(now))
	if patch.Text != nil {
		update = update.Set(expression.Name(attrText), expression.Value(*patch.Text))
	}
	if patch.Description != nil {
		update = update.Set(expression.Name(attrDesc), expression.Value(*patch.Description))
	}
	if patch.Completed != nil {
		update = update.Set(expression.Name(attrCompleted), expression.Value(*patch.Completed))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrSortKey))).
		Build()
	if err != nil {
		return nil, err
	}

	out, err := r.s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.s.dataTable),
		Key:                       dataKey(userID, taskSortKey(key)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeTask(out.Attributes)
}

func (r *taskRepo) Delete(ctx context.Context, userID string, key entity.TaskKey) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "DeleteItem", start, err) }(time.Now())

	_, err = r.s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.s.dataTable),
		Key:       dataKey(userID, taskSortKey(key)),
	})
	return err
}

// DeleteMany sends keys in chunks of 25 and resubmits unprocessed requests
// with exponential backoff a bounded number of times.
func (r *taskRepo) DeleteMany(ctx context.Context, userID string, keys []entity.TaskKey) error {
	for start := 0; start < len(keys); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(keys))
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: dataKey(userID, taskSortKey(k))},
			})
		}
		if err := r.writeBatch(ctx, map[string][]types.WriteRequest{r.s.dataTable: reqs}); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepo) writeBatch(ctx context.Context, pending map[string][]types.WriteRequest) error {
	backoff := r.s.batchBackoff
	for attempt := 1; ; attempt++ {
		start := time.Now()
		out, err := r.s.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		observe(r.s.dataTable, "BatchWriteItem", start, err)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		if attempt >= r.s.maxBatchAttempts {
			left := 0
			for _, reqs := range out.UnprocessedItems {
				left += len(reqs)
			}
			return fmt.Errorf("batch delete: %d requests still unprocessed after %d attempts", left, attempt)
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
