package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-email-otp/internal/domain"
)

// OTPRepo provides typed DynamoDB operations for the otps table.
//
// PK: otp_id (ULID). Lookups by email go through emailIndex and always take
// the newest record. Mutations that participate in the verification state
// machine are conditional writes so concurrent verifiers for the same email
// cannot double-spend a code or lose attempt increments.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Latest returns the most recent record for the email, regardless of expiry
// or attempt state. Email is not a unique key; a race between two challenge
// requests can leave duplicates, and the newest one is the only code the
// user was last sent.
func (r *OTPRepo) Latest(ctx context.Context, email string) (*domain.OtpRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(emailIndex),
		KeyConditionExpression: aws.String("#e = :e"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		ScanIndexForward: aws.Bool(false), // newest ULID first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
	}
	var rec domain.OtpRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Refresh overwrites code and expiry on an existing record, leaving the
// attempts counter untouched. Returns ErrNotFound if the record was deleted
// between the caller's read and this write.
func (r *OTPRepo) Refresh(ctx context.Context, otpID, code string, expiresAt int64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldCode:      code,
		fieldExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldOtpID, otpID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(otp_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("otp record vanished: %w", domain.ErrNotFound)
	}
	return err
}

// BumpAttempts sets attempts to from+1, conditional on the stored counter
// still being from. A concurrent wrong guess that got there first makes the
// condition fail; the caller re-reads and retries so no increment is lost.
func (r *OTPRepo) BumpAttempts(ctx context.Context, otpID string, from int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldOtpID, otpID),
		UpdateExpression:         aws.String("SET #a = :next"),
		ConditionExpression:      aws.String("attribute_exists(otp_id) AND #a = :cur"),
		ExpressionAttributeNames: map[string]string{"#a": fieldAttempts},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next": &types.AttributeValueMemberN{Value: fmt.Sprint(from + 1)},
			":cur":  &types.AttributeValueMemberN{Value: fmt.Sprint(from)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("attempt counter moved: %w", domain.ErrConflict)
	}
	return err
}

// Consume deletes the record, conditional on it still holding the given
// code. Of N concurrent correct submissions exactly one delete passes the
// condition; the rest fail and observe the record as gone.
func (r *OTPRepo) Consume(ctx context.Context, otpID, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldOtpID, otpID),
		ConditionExpression:      aws.String("attribute_exists(otp_id) AND #c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": fieldCode},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("otp already consumed or replaced: %w", domain.ErrNotFound)
	}
	return err
}

// Delete removes a record unconditionally. Used for terminal states where
// the record must go regardless of concurrent writers (expired, exhausted).
func (r *OTPRepo) Delete(ctx context.Context, otpID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldOtpID, otpID),
	})
	return err
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
