package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestPushSender_Send(t *testing.T) {
	pub := &fakePublisher{}
	s := &PushSender{client: pub}

	err := s.Send(context.Background(), "arn:aws:sns:endpoint/1", PushMessage{
		Title: "Reserved",
		Body:  "Someone reserved your item",
		Data:  map[string]string{"type": "item_reserved", "badge_count": "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:sns:endpoint/1", aws.ToString(pub.input.TargetArn))
	assert.Equal(t, "json", aws.ToString(pub.input.MessageStructure))

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(pub.input.Message)), &doc))
	assert.Equal(t, "Someone reserved your item", doc["default"])

	var gcm gcmPayload
	require.NoError(t, json.Unmarshal([]byte(doc["GCM"]), &gcm))
	assert.Equal(t, "Reserved", gcm.Notification.Title)
	assert.Equal(t, "2", gcm.Data["badge_count"])

	var apns apnsPayload
	require.NoError(t, json.Unmarshal([]byte(doc["APNS"]), &apns))
	assert.Equal(t, "Someone reserved your item", apns.APS.Alert.Body)
}

func TestPushSender_ClassifiesEndpointErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		invalid bool
	}{
		{"disabled", &types.EndpointDisabledException{Message: aws.String("Endpoint is disabled")}, true},
		{"not found", &types.NotFoundException{Message: aws.String("No endpoint found")}, true},
		{"bad target", &types.InvalidParameterException{Message: aws.String("Invalid parameter: TargetArn")}, true},
		{"other invalid param", &types.InvalidParameterException{Message: aws.String("Invalid parameter: Message too long")}, false},
		{"throttled", errors.New("throttling"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &PushSender{client: &fakePublisher{err: tc.err}}
			err := s.Send(context.Background(), "arn", PushMessage{Title: "t", Body: "b"})
			require.Error(t, err)
			assert.Equal(t, tc.invalid, errors.Is(err, ErrInvalidEndpoint))
		})
	}
}
