package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// EnsureTables creates the users and data tables when they are missing.
// Meant for local development against DynamoDB Local.
func (s *Store) EnsureTables(ctx context.Context, logger *logrus.Logger) error {
	specs := []*dynamodb.CreateTableInput{
		{
			TableName: aws.String(s.usersTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(attrUsername), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(attrUsername), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName: aws.String(s.dataTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(attrUserID), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String(attrSortKey), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(attrUserID), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(attrSortKey), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	}

	for _, spec := range specs {
		name := aws.ToString(spec.TableName)
		_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: spec.TableName})
		if err == nil {
			continue
		}
		var nf *types.ResourceNotFoundException
		if !errors.As(err, &nf) {
			return err
		}
		if _, err := s.api.CreateTable(ctx, spec); err != nil {
			var inUse *types.ResourceInUseException
			if !errors.As(err, &inUse) {
				return err
			}
		}
		w := dynamodb.NewTableExistsWaiter(s.api)
		if err := w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: spec.TableName}, 2*time.Minute); err != nil {
			return err
		}
		logger.WithField("table", name).Info("dynamodb table created")
	}
	return nil
}
