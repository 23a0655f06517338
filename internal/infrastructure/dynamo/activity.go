package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/complaints-api/internal/domain"
)

// ActivityLogRepo appends audit entries for complaint mutations.
// Entries are never updated or deleted.
type ActivityLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewActivityLogRepo(client *dynamodb.Client, tableName string) *ActivityLogRepo {
	return &ActivityLogRepo{client: client, tableName: tableName}
}

func (r *ActivityLogRepo) Put(ctx context.Context, l *domain.ActivityLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal activity log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put activity log: %w", domain.ErrUnavailable)
	}
	return nil
}

// ListByComplaint returns a complaint's audit trail in chronological order.
func (r *ActivityLogRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ActivityLog, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("complaint_id-created_at-index"),
		KeyConditionExpression:    aws.String("complaint_id = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: complaintID}},
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", domain.ErrUnavailable)
	}
	var logs []domain.ActivityLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
