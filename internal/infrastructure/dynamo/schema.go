package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EnsureSchema creates the otps table and its email index if they don't
// already exist, and enables TTL on expires_at so abandoned records are
// swept by the store. It is idempotent: a pre-existing table is success, and
// it never alters an existing schema. Call it — and wait for it — during
// startup, before the first challenge or verify.
func EnsureSchema(ctx context.Context, client *dynamodb.Client, tableName string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldOtpID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(fieldEmail), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldOtpID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(emailIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(fieldEmail), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(fieldOtpID), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		if !tableAlreadyExists(err) {
			return fmt.Errorf("create table %s: %w", tableName, err)
		}
		slog.Info("otp table already exists", "table", tableName)
		return nil
	}
	slog.Info("created otp table", "table", tableName)

	if _, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(fieldExpiresAt),
		},
	}); err != nil {
		// TTL is an optimization: the verifier deletes expired records it
		// touches, TTL only sweeps the ones nobody re-checks.
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
	return nil
}

// tableAlreadyExists classifies a CreateTable error: ResourceInUseException
// means the table is already there, which setup treats as success.
func tableAlreadyExists(err error) bool {
	var riue *types.ResourceInUseException
	return errors.As(err, &riue)
}
