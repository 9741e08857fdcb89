// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/stage"
)

// Publisher is the subset of the SNS API used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes stage transitions to one topic.
type SNSClient struct {
	client   Publisher
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// NewSNSClientWithPublisher is used with a preconfigured or fake client.
func NewSNSClientWithPublisher(p Publisher, topicARN string) *SNSClient {
	return &SNSClient{client: p, topicARN: topicARN}
}

func (s *SNSClient) NotifyTransition(ctx context.Context, event stage.TransitionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewNotificationPublishFailedError(err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String("relationship.stage.advanced"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"stage": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.To)),
			},
			"userId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.UserID),
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationPublishFailedError(err)
	}
	return nil
}
