package sns

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/complaints-api/internal/config"
)

// ComplaintEvent is the fan-out payload published on every complaint
// mutation. Downstream consumers (dashboards, notifiers) subscribe to the
// topic; publishing is best effort and never fails the originating request.
type ComplaintEvent struct {
	Action      string    `json:"action"`
	ComplaintID string    `json:"complaint_id"`
	UserID      string    `json:"user_id"`
	Details     string    `json:"details"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher publishes complaint lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev ComplaintEvent) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) Publish(ctx context.Context, ev ComplaintEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
	})
	return err
}
