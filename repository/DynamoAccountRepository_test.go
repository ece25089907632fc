package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otp-signup/model"
)

type fakeDynamo struct {
	putIn    *dynamodb.PutItemInput
	putErr   error
	getIn    *dynamodb.GetItemInput
	getOut   *dynamodb.GetItemOutput
	getErr   error
	updateIn *dynamodb.UpdateItemInput
	updErr   error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateIn = in
	if f.updErr != nil {
		return nil, f.updErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func TestDynamoRepo_InsertIsConditional(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewDynamoAccountRepository(fake, "webData")

	exp := time.Now().Add(time.Minute)
	require.NoError(t, repo.InsertIfAbsent(context.Background(), pendingAccount("a@x.com", 123456, exp)))

	require.NotNil(t, fake.putIn)
	assert.Equal(t, "webData", aws.ToString(fake.putIn.TableName))
	assert.Equal(t, "attribute_not_exists(email)", aws.ToString(fake.putIn.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a@x.com"}, fake.putIn.Item["email"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "hash"}, fake.putIn.Item["password"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "123456"}, fake.putIn.Item["otp"])
	assert.Contains(t, fake.putIn.Item, "otpExpiry")
}

func TestDynamoRepo_InsertConflict(t *testing.T) {
	fake := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
	repo := NewDynamoAccountRepository(fake, "webData")

	err := repo.InsertIfAbsent(context.Background(), pendingAccount("a@x.com", 123456, time.Now()))
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestDynamoRepo_InsertUpstreamFailure(t *testing.T) {
	boom := errors.New("throttled")
	repo := NewDynamoAccountRepository(&fakeDynamo{putErr: boom}, "webData")

	err := repo.InsertIfAbsent(context.Background(), pendingAccount("a@x.com", 123456, time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrAccountExists)
}

func TestDynamoRepo_GetRoundTrip(t *testing.T) {
	exp := time.Date(2026, 10, 19, 12, 0, 0, 500000000, time.UTC)
	item, err := attributevalue.MarshalMap(pendingAccount("a@x.com", 123456, exp))
	require.NoError(t, err)

	fake := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}}
	repo := NewDynamoAccountRepository(fake, "webData")

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, 123456, *got.PendingOTP)
	assert.True(t, exp.Equal(*got.OTPExpiresAt))
	assert.True(t, aws.ToBool(fake.getIn.ConsistentRead))
}

func TestDynamoRepo_GetMissing(t *testing.T) {
	repo := NewDynamoAccountRepository(&fakeDynamo{}, "webData")

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDynamoRepo_MarkVerifiedExpression(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewDynamoAccountRepository(fake, "webData")

	require.NoError(t, repo.UpdateFields(context.Background(), "a@x.com", model.MarkVerified(123456)))

	in := fake.updateIn
	require.NotNil(t, in)
	assert.Equal(t, "SET #v = :v REMOVE #o, #e", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "attribute_exists(email) AND #v = :unverified AND #o = :expected", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#v": "verified", "#o": "otp", "#e": "otpExpiry"}, in.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, in.ExpressionAttributeValues[":v"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, in.ExpressionAttributeValues[":unverified"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "123456"}, in.ExpressionAttributeValues[":expected"])
	assert.Equal(t, types.ReturnValuesOnConditionCheckFailureAllOld, in.ReturnValuesOnConditionCheckFailure)
}

func TestDynamoRepo_ReplaceOTPExpression(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewDynamoAccountRepository(fake, "webData")

	require.NoError(t, repo.UpdateFields(context.Background(), "a@x.com", model.ReplaceOTP(654321, time.Now())))

	in := fake.updateIn
	assert.Equal(t, "SET #o = :o, #e = :e", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "attribute_exists(email) AND #v = :unverified", aws.ToString(in.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "654321"}, in.ExpressionAttributeValues[":o"])
}

func TestDynamoRepo_UpdateConditionFailures(t *testing.T) {
	missing := &fakeDynamo{updErr: &types.ConditionalCheckFailedException{}}
	err := NewDynamoAccountRepository(missing, "webData").UpdateFields(context.Background(), "ghost@x.com", model.MarkVerified(123456))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	verified := &fakeDynamo{updErr: &types.ConditionalCheckFailedException{
		Item: map[string]types.AttributeValue{
			"email":    &types.AttributeValueMemberS{Value: "a@x.com"},
			"verified": &types.AttributeValueMemberBOOL{Value: true},
		},
	}}
	err = NewDynamoAccountRepository(verified, "webData").UpdateFields(context.Background(), "a@x.com", model.MarkVerified(123456))
	assert.ErrorIs(t, err, ErrAccountVerified)

	replaced := &fakeDynamo{updErr: &types.ConditionalCheckFailedException{
		Item: map[string]types.AttributeValue{
			"email":    &types.AttributeValueMemberS{Value: "a@x.com"},
			"verified": &types.AttributeValueMemberBOOL{Value: false},
			"otp":      &types.AttributeValueMemberN{Value: "654321"},
		},
	}}
	err = NewDynamoAccountRepository(replaced, "webData").UpdateFields(context.Background(), "a@x.com", model.MarkVerified(123456))
	assert.ErrorIs(t, err, ErrOTPChanged)
}

func TestDynamoRepo_EmptyPatchIsNoop(t *testing.T) {
	fake := &fakeDynamo{}
	require.NoError(t, NewDynamoAccountRepository(fake, "webData").UpdateFields(context.Background(), "a@x.com", model.AccountPatch{}))
	assert.Nil(t, fake.updateIn)
}
