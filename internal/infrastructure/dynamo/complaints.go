package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/complaints-api/internal/domain"
)

// docTypeComplaint is the constant partition value for collection-wide
// listing indexes.
const docTypeComplaint = "complaint"

// ComplaintRepo provides typed DynamoDB operations for the complaints table.
// Listing is cursor-based: QueryPage returns an opaque cursor that feeds the
// next call's ExclusiveStartKey; page numbering is layered on top by the
// application service.
type ComplaintRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewComplaintRepo(client *dynamodb.Client, tableName string) *ComplaintRepo {
	return &ComplaintRepo{client: client, tableName: tableName}
}

func (r *ComplaintRepo) Put(ctx context.Context, c *domain.Complaint) error {
	c.DocType = docTypeComplaint
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal complaint: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put complaint: %w", domain.ErrUnavailable)
	}
	return nil
}

func (r *ComplaintRepo) Get(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("complaint_id", complaintID),
	})
	if err != nil {
		return nil, fmt.Errorf("get complaint: %w", domain.ErrUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("complaint not found: %w", domain.ErrNotFound)
	}
	var c domain.Complaint
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComplaintRepo) Update(ctx context.Context, complaintID string, updates map[string]interface{}) error {
	// Passed as time.Time so attributevalue renders it exactly like Put does;
	// updated_at is a GSI range key and must keep one format.
	updates["updated_at"] = time.Now().UTC()
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("complaint_id", complaintID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update complaint: %w", domain.ErrUnavailable)
	}
	return nil
}

func (r *ComplaintRepo) Delete(ctx context.Context, complaintID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("complaint_id", complaintID),
	})
	if err != nil {
		return fmt.Errorf("delete complaint: %w", domain.ErrUnavailable)
	}
	return nil
}

// AppendComment atomically appends to the comments list and bumps updated_at.
func (r *ComplaintRepo) AppendComment(ctx context.Context, complaintID string, c domain.Comment) error {
	av, err := attributevalue.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	ts, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marshal timestamp: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("complaint_id", complaintID),
		UpdateExpression: aws.String("SET comments = list_append(if_not_exists(comments, :empty), :c), updated_at = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":     &types.AttributeValueMemberL{Value: []types.AttributeValue{av}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":u":     ts,
		},
	})
	if err != nil {
		return fmt.Errorf("append comment: %w", domain.ErrUnavailable)
	}
	return nil
}

// queryInput resolves the index and key condition for a filter combination.
// Every combination has a dedicated GSI except status+owner, where the owner
// index carries a status filter expression.
func (r *ComplaintRepo) queryInput(q domain.ComplaintQuery) *dynamodb.QueryInput {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var index, keyCond string
	var filter *string

	switch {
	case q.OwnerID != "":
		index = "user_id-" + q.SortField + "-index"
		keyCond = "#pk = :pk"
		names["#pk"] = "user_id"
		values[":pk"] = &types.AttributeValueMemberS{Value: q.OwnerID}
		if q.Status != "" {
			names["#st"] = "status"
			values[":st"] = &types.AttributeValueMemberS{Value: q.Status}
			filter = aws.String("#st = :st")
		}
	case q.Status != "":
		index = "status-" + q.SortField + "-index"
		keyCond = "#pk = :pk"
		names["#pk"] = "status"
		values[":pk"] = &types.AttributeValueMemberS{Value: q.Status}
	default:
		index = "doc_type-" + q.SortField + "-index"
		keyCond = "#pk = :pk"
		names["#pk"] = "doc_type"
		values[":pk"] = &types.AttributeValueMemberS{Value: docTypeComplaint}
	}

	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          filter,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(q.SortOrder == "asc"),
	}
}

// QueryPage fetches up to limit complaints after cursor in index order.
// Returns the items and the next cursor (empty when the collection is
// exhausted).
func (r *ComplaintRepo) QueryPage(ctx context.Context, q domain.ComplaintQuery, limit int32, cursor string) ([]domain.Complaint, string, error) {
	input := r.queryInput(q)
	input.Limit = aws.Int32(limit)
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
	}
	input.ExclusiveStartKey = startKey

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("query complaints: %w", domain.ErrUnavailable)
	}
	var items []domain.Complaint
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return items, next, nil
}

// Count returns the number of complaints matching the query filters.
func (r *ComplaintRepo) Count(ctx context.Context, q domain.ComplaintQuery) (int, error) {
	input := r.queryInput(q)
	input.Select = types.SelectCount

	total := 0
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("count complaints: %w", domain.ErrUnavailable)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
