// Package dynamodb implements the repositories on two DynamoDB tables: a
// users table keyed by username and a single data table keyed by
// userId + SK holding one PROFILE item and the TASK#{tabId}#{taskId} items
// of each user.
package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/oksasatya/taskhive/internal/domain/repository"
	"github.com/oksasatya/taskhive/internal/metrics"
)

// API is the subset of *dynamodb.Client the repositories call.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// ClientConfig selects the region, optional static credentials and an
// optional endpoint override (DynamoDB Local, LocalStack).
type ClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewClient builds a DynamoDB client. Without static keys the default AWS
// credential chain applies.
func NewClient(ctx context.Context, cfg ClientConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Store hands out the three repositories over one client.
type Store struct {
	api        API
	usersTable string
	dataTable  string
	// batch delete resubmission policy
	maxBatchAttempts int
	batchBackoff     time.Duration
}

func NewStore(api API, usersTable, dataTable string) *Store {
	return &Store{
		api:              api,
		usersTable:       usersTable,
		dataTable:        dataTable,
		maxBatchAttempts: 5,
		batchBackoff:     50 * time.Millisecond,
	}
}

func (s *Store) Credentials() repository.CredentialRepository { return &credentialRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository       { return &profileRepo{s} }
func (s *Store) Tasks() repository.TaskRepository             { return &taskRepo{s} }

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// observe records one store call.
func observe(table, op string, start time.Time, err error) {
	status := "success"
	switch {
	case err == nil:
	case isConditionFailed(err):
		status = "condition_failed"
	default:
		status = "error"
	}
	metrics.StoreOpsTotal.WithLabelValues(table, op, status).Inc()
	metrics.StoreOpDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}
