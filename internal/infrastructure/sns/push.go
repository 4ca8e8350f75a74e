package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-wishlist-api/internal/config"
)

// ErrInvalidEndpoint means the device endpoint is gone or disabled and the
// stored token should be dropped.
var ErrInvalidEndpoint = errors.New("invalid push endpoint")

// PushMessage is a provider-neutral mobile notification. Data values must be
// strings; FCM rejects anything else in the data block.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

type publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSender delivers mobile push notifications to SNS platform endpoints.
type PushSender struct {
	client publisher
}

func NewPushSender(cfg *config.Config) (*PushSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &PushSender{client: sns.NewFromConfig(awsCfg, clientOpts...)}, nil
}

// Send publishes msg to the endpoint ARN stored as a device token.
func (s *PushSender) Send(ctx context.Context, endpointARN string, msg PushMessage) error {
	payload, err := buildPayload(msg)
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointARN),
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	return classify(err)
}

type gcmPayload struct {
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"notification"`
	Data map[string]string `json:"data,omitempty"`
}

type apnsPayload struct {
	APS struct {
		Alert struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"alert"`
		Sound string `json:"sound"`
	} `json:"aps"`
	Data map[string]string `json:"data,omitempty"`
}

// buildPayload renders the per-platform JSON document SNS expects with
// MessageStructure=json. Each platform value is itself a JSON string.
func buildPayload(msg PushMessage) (string, error) {
	var g gcmPayload
	g.Notification.Title = msg.Title
	g.Notification.Body = msg.Body
	g.Data = msg.Data

	var a apnsPayload
	a.APS.Alert.Title = msg.Title
	a.APS.Alert.Body = msg.Body
	a.APS.Sound = "default"
	a.Data = msg.Data

	gcm, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal gcm payload: %w", err)
	}
	apns, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal apns payload: %w", err)
	}
	out, err := json.Marshal(map[string]string{
		"default":      msg.Body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var disabled *types.EndpointDisabledException
	var notFound *types.NotFoundException
	if errors.As(err, &disabled) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) && strings.Contains(strings.ToLower(invalid.ErrorMessage()), "targetarn") {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	return fmt.Errorf("sns publish: %w", err)
}
