package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"otp-signup/model"
)

// DynamoAPI is the subset of *dynamodb.Client the repository needs.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type DynamoOptions struct {
	Region string
	// Endpoint overrides the service endpoint (DynamoDB Local, LocalStack).
	// When set, AccessKey/SecretKey are used as static credentials.
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewDynamoClient builds a DynamoDB client from the default AWS config chain
func NewDynamoClient(ctx context.Context, opts DynamoOptions) (*dynamodb.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.Endpoint != "" && opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

type dynamoAccountRepo struct {
	client DynamoAPI
	table  string
}

func NewDynamoAccountRepository(client DynamoAPI, table string) AccountRepository {
	return &dynamoAccountRepo{client: client, table: table}
}

func (r *dynamoAccountRepo) emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

func (r *dynamoAccountRepo) InsertIfAbsent(ctx context.Context, account *model.Account) error {
	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAccountExists
		}
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

func (r *dynamoAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrAccountNotFound
	}

	var a model.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &a, nil
}

func (r *dynamoAccountRepo) UpdateFields(ctx context.Context, email string, patch model.AccountPatch) error {
	in, err := r.updateInput(email, patch)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}

	_, err = r.client.UpdateItem(ctx, in)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return conditionFailure(patch, ccf.Item, err)
		}
		return fmt.Errorf("dynamodb update: %w", err)
	}
	return nil
}

// conditionFailure names the guard that rejected an update. ALL_OLD is
// requested on failure, so an empty item means the key is absent.
func conditionFailure(patch model.AccountPatch, item map[string]types.AttributeValue, cause error) error {
	if len(item) == 0 {
		return ErrAccountNotFound
	}

	var old model.Account
	if err := attributevalue.UnmarshalMap(item, &old); err != nil {
		return fmt.Errorf("unmarshal rejected account: %w", err)
	}
	if patch.RequireUnverified && old.Verified {
		return ErrAccountVerified
	}
	if !patch.OTPMatches(&old) {
		return ErrOTPChanged
	}
	return fmt.Errorf("dynamodb update: %w", cause)
}

// updateInput renders a patch as "SET ... REMOVE ..." guarded by the key's existence.
func (r *dynamoAccountRepo) updateInput(email string, patch model.AccountPatch) (*dynamodb.UpdateItemInput, error) {
	var sets, removes []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if patch.Verified != nil {
		names["#v"] = "verified"
		values[":v"] = &types.AttributeValueMemberBOOL{Value: *patch.Verified}
		sets = append(sets, "#v = :v")
	}
	if patch.PendingOTP != nil {
		av, err := attributevalue.Marshal(*patch.PendingOTP)
		if err != nil {
			return nil, err
		}
		names["#o"] = "otp"
		values[":o"] = av
		sets = append(sets, "#o = :o")
	} else if patch.ClearOTP {
		names["#o"] = "otp"
		removes = append(removes, "#o")
	}
	if patch.OTPExpiresAt != nil {
		av, err := attributevalue.Marshal(*patch.OTPExpiresAt)
		if err != nil {
			return nil, err
		}
		names["#e"] = "otpExpiry"
		values[":e"] = av
		sets = append(sets, "#e = :e")
	} else if patch.ClearOTP {
		names["#e"] = "otpExpiry"
		removes = append(removes, "#e")
	}

	if len(sets) == 0 && len(removes) == 0 {
		return nil, nil
	}

	var expr []string
	if len(sets) > 0 {
		expr = append(expr, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		expr = append(expr, "REMOVE "+strings.Join(removes, ", "))
	}

	cond := "attribute_exists(email)"
	if patch.RequireUnverified {
		names["#v"] = "verified"
		values[":unverified"] = &types.AttributeValueMemberBOOL{Value: false}
		cond += " AND #v = :unverified"
	}
	if patch.ExpectOTP != nil {
		av, err := attributevalue.Marshal(*patch.ExpectOTP)
		if err != nil {
			return nil, err
		}
		names["#o"] = "otp"
		values[":expected"] = av
		cond += " AND #o = :expected"
	}
	if len(values) == 0 {
		values = nil
	}

	return &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.table),
		Key:                                 r.emailKey(email),
		UpdateExpression:                    aws.String(strings.Join(expr, " ")),
		ConditionExpression:                 aws.String(cond),
		ExpressionAttributeNames:            names,
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}
