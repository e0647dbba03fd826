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
	"github.com/oksasatya/taskhive/pkg/helpers"
)

type credentialRepo struct{ s *Store }

func (r *credentialRepo) Create(ctx context.Context, cred *entity.UserCredential) (err error) {
	defer func(start time.Time) { observe(r.s.usersTable, "PutItem", start, err) }(time.Now())

	item, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrUsername))).
		Build()
	if err != nil {
		return err
	}
	_, err = r.s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.s.usersTable),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return repository.ErrConditionFailed
	}
	return err
}

func (r *credentialRepo) GetByUsername(ctx context.Context, username string) (_ *entity.UserCredential, err error) {
	defer func(start time.Time) { observe(r.s.usersTable, "GetItem", start, err) }(time.Now())

	out, err := r.s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.s.usersTable),
		Key:            userKey(username),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, repository.ErrNotFound
	}

	// The hash must be a binary attribute of bcrypt length; string-typed
	// hashes come from foreign writers and are never compared.
	hash, ok := out.Item[attrPassword].(*types.AttributeValueMemberB)
	if !ok || len(hash.Value) != helpers.BcryptHashLen {
		return nil, fmt.Errorf("%w: %s has no binary password hash", repository.ErrMalformedRecord, username)
	}
	var cred entity.UserCredential
	if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}
	if cred.UserID == "" {
		return nil, fmt.Errorf("%w: %s has no userId", repository.ErrMalformedRecord, username)
	}
	return &cred, nil
}
