package storage

import (
	"context"
	"testing"

	"alcyxob/workout-engine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWorkoutLogKey(t *testing.T) {
	userID, err := primitive.ObjectIDFromHex("65f1a2b3c4d5e6f708192a3b")
	require.NoError(t, err)
	logID, err := primitive.ObjectIDFromHex("65f1a2b3c4d5e6f708192a3c")
	require.NoError(t, err)

	assert.Equal(t, "workout-logs/65f1a2b3c4d5e6f708192a3b/65f1a2b3c4d5e6f708192a3c.json", WorkoutLogKey(userID, logID))
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), config.S3Config{Region: "us-east-1"})
	require.Error(t, err)
}

func TestGeneratePresignedDownloadURL(t *testing.T) {
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "logs",
	})
	require.NoError(t, err)

	url, err := fs.GeneratePresignedDownloadURL(context.Background(), "workout-logs/a/b.json", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/logs/workout-logs/a/b.json")
	assert.Contains(t, url, "X-Amz-Signature")
}
