package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bida-banking-workers/internal/bank"
	awsclient "bida-banking-workers/internal/common/aws"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func newNotifier(sesAPI *fakeSES, snsAPI *fakeSNS) *AWSNotifier {
	return NewAWSNotifier(
		awsclient.NewSESClientWithAPI(sesAPI, "banking@bida.gov.bd"),
		"officer@bida.gov.bd",
		awsclient.NewSNSClientWithAPI(snsAPI, "arn:aws:sns:ap-south-1:123456789012:bank-messages"),
		logger.NewNoOpLogger(),
	)
}

func TestAWSNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	sesAPI, snsAPI := &fakeSES{}, &fakeSNS{}
	n := newNotifier(sesAPI, snsAPI)

	investorMsg := bank.BankMessage{ID: "m-1", Recipient: bank.RecipientInvestor, Subject: "KYC Verification Approved", Category: bank.CategoryKYC}
	officerMsg := bank.BankMessage{ID: "m-2", Recipient: bank.RecipientOfficer, Subject: "New Corporate Account", Body: "opened", Category: bank.CategoryAccount}

	require.NoError(t, n.Notify(ctx, "inv-1", investorMsg))
	require.NoError(t, n.Notify(ctx, "inv-1", officerMsg))

	require.Len(t, snsAPI.inputs, 2)
	assert.Equal(t, "KYC Verification Approved", aws.ToString(snsAPI.inputs[0].Subject))
	assert.Equal(t, "investor", aws.ToString(snsAPI.inputs[0].MessageAttributes["recipient"].StringValue))
	assert.Equal(t, "inv-1", aws.ToString(snsAPI.inputs[0].MessageAttributes["investorId"].StringValue))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(snsAPI.inputs[1].Message)), &payload))
	assert.Equal(t, "inv-1", payload["investorId"])
	assert.Equal(t, "m-2", payload["id"])

	require.Len(t, sesAPI.inputs, 1)
	assert.Equal(t, []string{"officer@bida.gov.bd"}, sesAPI.inputs[0].Destination.ToAddresses)
	assert.Equal(t, "[BIDA Banking] New Corporate Account", aws.ToString(sesAPI.inputs[0].Message.Subject.Data))
	assert.Equal(t, "banking@bida.gov.bd", aws.ToString(sesAPI.inputs[0].Source))
}

func TestAWSNotifier_Failures(t *testing.T) {
	ctx := context.Background()
	msg := bank.BankMessage{Recipient: bank.RecipientOfficer, Subject: "Escrow Released"}

	t.Run("sns failure still sends email", func(t *testing.T) {
		sesAPI := &fakeSES{}
		n := newNotifier(sesAPI, &fakeSNS{err: errors.New("throttled")})

		err := n.Notify(ctx, "inv-1", msg)
		require.Error(t, err)
		stdErr := apperrors.Normalize(err)
		assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
		assert.Len(t, sesAPI.inputs, 1)
	})

	t.Run("ses failure", func(t *testing.T) {
		n := newNotifier(&fakeSES{err: errors.New("address not verified")}, &fakeSNS{})
		err := n.Notify(ctx, "inv-1", msg)
		require.Error(t, err)
		assert.Contains(t, apperrors.Normalize(err).Details, "ses")
	})

	t.Run("channels are optional", func(t *testing.T) {
		n := NewAWSNotifier(nil, "", nil, logger.NewNoOpLogger())
		assert.NoError(t, n.Notify(ctx, "inv-1", msg))
	})
}
