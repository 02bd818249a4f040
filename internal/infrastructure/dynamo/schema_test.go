package dynamo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlreadyExists(t *testing.T) {
	riue := &types.ResourceInUseException{Message: aws.String("Table already exists: otps")}
	assert.True(t, tableAlreadyExists(riue))
	assert.True(t, tableAlreadyExists(fmt.Errorf("create table otps: %w", riue)))

	assert.False(t, tableAlreadyExists(nil))
	assert.False(t, tableAlreadyExists(errors.New("throttled")))
	assert.False(t, tableAlreadyExists(&types.ResourceNotFoundException{}))
}

// stubDynamo points a real DynamoDB client at an in-process HTTP server so
// EnsureSchema can be driven through the SDK's wire protocol.
func stubDynamo(t *testing.T, handler http.HandlerFunc) *dynamodb.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return dynamodb.New(dynamodb.Options{
		BaseEndpoint: aws.String(srv.URL),
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
}

func TestEnsureSchema_CreatesTableAndEnablesTTL(t *testing.T) {
	var targets []string
	client := stubDynamo(t, func(w http.ResponseWriter, r *http.Request) {
		targets = append(targets, r.Header.Get("X-Amz-Target"))
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, EnsureSchema(context.Background(), client, "otps"))
	assert.Equal(t, []string{
		"DynamoDB_20120810.CreateTable",
		"DynamoDB_20120810.UpdateTimeToLive",
	}, targets)
}

func TestEnsureSchema_PreExistingTable_IsSuccess(t *testing.T) {
	calls := 0
	client := stubDynamo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"com.amazonaws.dynamodb#ResourceInUseException","message":"Table already exists: otps"}`))
	})

	assert.NoError(t, EnsureSchema(context.Background(), client, "otps"))
	// An existing table must not be altered: no TTL call follows.
	assert.Equal(t, 1, calls)
}

func TestEnsureSchema_GenuineFailure_Propagates(t *testing.T) {
	client := stubDynamo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"com.amazonaws.dynamodb#ValidationException","message":"Invalid table name"}`))
	})

	err := EnsureSchema(context.Background(), client, "otps")
	require.Error(t, err)
	assert.False(t, tableAlreadyExists(err))
}
