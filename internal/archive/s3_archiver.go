/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/system/config"
	errors2 "github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

const (
	defaultAttempts = 3
	putTimeout      = 30 * time.Second
	maxBackoff      = 2 * time.Second
)

// ObjectPutter is the subset of the S3 client used by the archiver.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads consent records as gzip-compressed JSON lines.
type S3Archiver struct {
	client   ObjectPutter
	bucket   string
	prefix   string
	attempts int
	clock    func() time.Time
}

// NewS3Archiver creates an archiver over an existing client.
func NewS3Archiver(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		attempts: defaultAttempts,
		clock:    time.Now,
	}
}

// NewS3ArchiverFromConfig loads AWS credentials from the default chain. SDK retries are disabled;
// the archiver retries on its own.
func NewS3ArchiverFromConfig(ctx context.Context, archiveConfig config.ArchiveConfig) (*S3Archiver, error) {

	if archiveConfig.Bucket == "" {
		return nil, errors.New("archive bucket is not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(archiveConfig.AWSRegion))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
	})
	return NewS3Archiver(client, archiveConfig.Bucket, archiveConfig.Prefix), nil
}

// Archive uploads records as one object and returns its key. An empty slice uploads nothing.
func (a *S3Archiver) Archive(ctx context.Context, records []model.ConsentRecord) (string, error) {

	if len(records) == 0 {
		return "", nil
	}
	body, err := EncodeJSONLines(records)
	if err != nil {
		return "", archiveError("Failed to encode consent records for archiving.", err)
	}

	key := a.objectKey()
	if err := a.upload(ctx, key, body); err != nil {
		return "", archiveError(fmt.Sprintf("Failed to upload archive %s to bucket %s.", key, a.bucket), err)
	}
	log.GetLogger().Audit(log.AuditEvent{
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      key,
		TargetType:    log.TargetTypeConsentLog,
		ActionID:      log.ActionArchiveConsent,
		Data:          map[string]interface{}{"bucket": a.bucket, "records": len(records), "bytes": len(body)},
	})
	return key, nil
}

func (a *S3Archiver) upload(ctx context.Context, key string, body []byte) error {

	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 1; attempt <= a.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		putCtx, cancel := context.WithTimeout(ctx, putTimeout)
		_, err := a.client.PutObject(putCtx, &s3.PutObjectInput{
			Bucket:          aws.String(a.bucket),
			Key:             aws.String(key),
			Body:            bytes.NewReader(body),
			ContentLength:   aws.Int64(int64(len(body))),
			ContentType:     aws.String("application/x-ndjson"),
			ContentEncoding: aws.String("gzip"),
		})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		log.GetLogger().Warn("Archive upload attempt failed", log.String("key", key), log.Int("attempt", attempt),
			log.Error(err))

		if attempt == a.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}

func (a *S3Archiver) objectKey() string {
	now := a.clock().UTC()
	name := fmt.Sprintf("consent-logs-%s-%s.jsonl.gz", now.Format("20060102T150405Z"), uuid.NewString())
	return path.Join(a.prefix, now.Format("2006/01/02"), name)
}

// EncodeJSONLines writes one JSON record per line and gzip-compresses the result.
func EncodeJSONLines(records []model.ConsentRecord) ([]byte, error) {

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	encoder := json.NewEncoder(gz)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func archiveError(description string, err error) error {
	return errors2.NewServerError(errors2.ErrorMessage{
		Code:        errors2.ARCHIVE_CONSENT_LOGS.Code,
		Message:     errors2.ARCHIVE_CONSENT_LOGS.Message,
		Description: description,
	}, err)
}
