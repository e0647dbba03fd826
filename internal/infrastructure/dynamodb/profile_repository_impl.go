package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/internal/domain/repository"
)

type profileRecord struct {
	UserID      string       `dynamodbav:"userId"`
	SK          string       `dynamodbav:"SK"`
	EntityType  string       `dynamodbav:"entityType"`
	ActiveTabID string       `dynamodbav:"activeTabId"`
	TabOrder    []string     `dynamodbav:"tabOrder"`
	Tabs        []entity.Tab `dynamodbav:"tabs"`
	CreatedAt   time.Time    `dynamodbav:"createdAt"`
	UpdatedAt   time.Time    `dynamodbav:"updatedAt"`
}

func toProfileRecord(p *entity.Profile) profileRecord {
	rec := profileRecord{
		UserID:      p.UserID,
		SK:          entity.ProfileSortKey,
		EntityType:  entityProfile,
		ActiveTabID: p.ActiveTabID,
		TabOrder:    p.TabOrder,
		Tabs:        p.Tabs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	// list_append needs lists, not NULL
	if rec.TabOrder == nil {
		rec.TabOrder = []string{}
	}
	if rec.Tabs == nil {
		rec.Tabs = []entity.Tab{}
	}
	return rec
}

func (rec profileRecord) toEntity() *entity.Profile {
	return &entity.Profile{
		UserID:      rec.UserID,
		ActiveTabID: rec.ActiveTabID,
		TabOrder:    rec.TabOrder,
		Tabs:        rec.Tabs,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type profileRepo struct{ s *Store }

func (r *profileRepo) Get(ctx context.Context, userID string) (_ *entity.Profile, err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "GetItem", start, err) }(time.Now())

	out, err := r.s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.s.dataTable),
		Key:            dataKey(userID, entity.ProfileSortKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, repository.ErrNotFound
	}
	var rec profileRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}
	return rec.toEntity(), nil
}

func (r *profileRepo) Create(ctx context.Context, p *entity.Profile) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(toProfileRecord(p))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrUserID))).
		Build()
	if err != nil {
		return err
	}
	_, err = r.s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.s.dataTable),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return repository.ErrConditionFailed
	}
	return err
}

func (r *profileRepo) update(ctx context.Context, userID string, expr expression.Expression) error {
	_, err := r.s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.s.dataTable),
		Key:                       dataKey(userID, entity.ProfileSortKey),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return repository.ErrConditionFailed
	}
	return err
}

func (r *profileRepo) AppendTab(ctx context.Context, userID string, tab entity.Tab, now time.Time) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "UpdateItem", start, err) }(time.Now())

	update := expression.
		Set(expression.Name(attrTabs), expression.ListAppend(expression.Name(attrTabs), expression.Value([]entity.Tab{tab}))).
		Set(expression.Name(attrTabOrder), expression.ListAppend(expression.Name(attrTabOrder), expression.Value([]string{tab.TabID}))).
		Set(expression.Name(attrUpdatedAt), expression.Value(now))
	cond := expression.AttributeExists(expression.Name(attrUserID)).
		And(expression.Not(expression.Contains(expression.Name(attrTabOrder), tab.TabID)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return err
	}
	return r.update(ctx, userID, expr)
}

func (r *profileRepo) ReplaceTabs(ctx context.Context, p *entity.Profile, expectedUpdatedAt time.Time) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "UpdateItem", start, err) }(time.Now())

	rec := toProfileRecord(p)
	update := expression.
		Set(expression.Name(attrTabs), expression.Value(rec.Tabs)).
		Set(expression.Name(attrTabOrder), expression.Value(rec.TabOrder)).
		Set(expression.Name(attrActiveTab), expression.Value(rec.ActiveTabID)).
		Set(expression.Name(attrUpdatedAt), expression.Value(rec.UpdatedAt))
	cond := expression.Name(attrUpdatedAt).Equal(expression.Value(expectedUpdatedAt))
	if expectedUpdatedAt.IsZero() {
		// Profiles written before updatedAt existed carry no attribute at all.
		cond = expression.AttributeNotExists(expression.Name(attrUpdatedAt)).Or(cond)
	}

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return err
	}
	return r.update(ctx, p.UserID, expr)
}

func (r *profileRepo) SetActiveTab(ctx context.Context, userID, tabID string, now time.Time) (err error) {
	defer func(start time.Time) { observe(r.s.dataTable, "UpdateItem", start, err) }(time.Now())

	def := entity.NewDefaultProfile(userID, now)
	update := expression.
		Set(expression.Name(attrActiveTab), expression.Value(tabID)).
		Set(expression.Name(attrUpdatedAt), expression.Value(now)).
		Set(expression.Name(attrTabs), expression.IfNotExists(expression.Name(attrTabs), expression.Value(def.Tabs))).
		Set(expression.Name(attrTabOrder), expression.IfNotExists(expression.Name(attrTabOrder), expression.Value(def.TabOrder))).
		Set(expression.Name(attrCreatedAt), expression.IfNotExists(expression.Name(attrCreatedAt), expression.Value(now))).
		Set(expression.Name(attrEntityType), expression.Value(entityProfile))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return err
	}
	_, err = r.s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.s.dataTable),
		Key:                       dataKey(userID, entity.ProfileSortKey),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}
