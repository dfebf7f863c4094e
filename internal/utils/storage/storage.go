package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/internal/utils"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage keeps uploaded media under slash separated object keys.
type Storage interface {
	Upload(ctx context.Context, objectKey string, body []byte, contentType string) error
	Delete(ctx context.Context, objectKey string) error
	GetPublicLink(objectKey string) string
}

// NewStorage picks the backend named by STORAGE_DRIVER.
func NewStorage(ctx context.Context) (Storage, error) {
	switch strings.ToLower(utils.GetConfig("STORAGE_DRIVER")) {
	case "", "local":
		return NewLocalStorage(utils.GetConfig("MEDIA_ROOT"), utils.GetConfig("MEDIA_URL"))
	case "s3":
		return NewAwsS3(ctx, S3Config{
			Bucket:    utils.GetConfig("AWS_S3_BUCKET"),
			Region:    utils.GetConfig("AWS_S3_REGION"),
			AccessKey: utils.GetConfig("AWS_ACCESS_KEY"),
			SecretKey: utils.GetConfig("AWS_SECRET_KEY"),
			Endpoint:  utils.GetConfig("AWS_S3_ENDPOINT"),
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, utils.GetConfig("STORAGE_DRIVER"))
	}
}
