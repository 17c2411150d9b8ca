package uploadsvc

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type s3Store struct {
	client *s3.Client
	bucket string
	region string
}

var _ core.FileStore = (*s3Store)(nil)

func NewS3Store(conf *core.Config) (core.FileStore, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(conf.Storage.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return &s3Store{
		client: s3.NewFromConfig(cfg),
		bucket: conf.Storage.Bucket,
		region: conf.Storage.Region,
	}, nil
}

// Save uploads the file under a uuid-prefixed key so uploads never collide.
func (st *s3Store) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	key := uuid.New().String() + "/" + filepath.Base(filename)

	_, err := st.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errors.Wrap(err, "uploading file to S3")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", st.bucket, st.region, key), nil
}
