/*
 * s3.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rmera/mdrms/table"
)

// S3Config contains the parameters of an S3Store.
type S3Config struct {
	Bucket string
	//Key prefix for the objects, such as "project/results".
	Prefix   string
	Region   string //default us-east-1
	Endpoint string //optional, for S3-compatible services such as MinIO
	//Optional static credentials. The default credentials chain is used otherwise.
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// S3Store keeps each table as a CSV object in a bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store returns a store with the configuration cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("cache: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (S *S3Store) objectKey(key string) string {
	if S.prefix == "" {
		return key + ".csv"
	}
	return path.Join(S.prefix, key+".csv")
}

// notFound returns true if err is the answer for a missing object.
func notFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

func (S *S3Store) Get(ctx context.Context, key string) (*table.Table, error) {
	k := S.objectKey(key)
	out, err := S.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &S.bucket, Key: &k})
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return table.Read(out.Body)
}

func (S *S3Store) Put(ctx context.Context, key string, t *table.Table) error {
	var b bytes.Buffer
	if err := t.Write(&b); err != nil {
		return err
	}
	k := S.objectKey(key)
	_, err := S.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &S.bucket,
		Key:         &k,
		Body:        bytes.NewReader(b.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	return err
}

func (S *S3Store) Delete(ctx context.Context, key string) error {
	k := S.objectKey(key)
	_, err := S.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &S.bucket, Key: &k})
	return err
}
