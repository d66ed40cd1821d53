// Package aws builds the SES and SNS clients used by the confirmation notifier.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SESAPI is the subset of the SES client the notifier calls.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSAPI is the subset of the SNS client the notifier calls.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

func NewSESClient(cfg aws.Config) *ses.Client {
	return ses.NewFromConfig(cfg)
}

func NewSNSClient(cfg aws.Config) *sns.Client {
	return sns.NewFromConfig(cfg)
}

var (
	_ SESAPI = (*ses.Client)(nil)
	_ SNSAPI = (*sns.Client)(nil)
)
