// Package filebase pins content through Filebase's S3-compatible IPFS
// buckets. Every object written to an IPFS bucket gets its CID attached as
// the "cid" user metadata entry, which is read back with HeadObject.
package filebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultEndpoint = "https://s3.filebase.com"
	DefaultRegion   = "us-east-1"

	cidMetadataKey = "cid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectAPI is the subset of the S3 client the uploader needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

type Client struct {
	api    ObjectAPI
	bucket string
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewClient builds an S3 client pointed at the Filebase endpoint.
func NewClient(ctx context.Context, cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: filebase requires access key, secret key and bucket", common.ErrConfig)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return NewWithAPI(api, cfg.Bucket, logger), nil
}

func NewWithAPI(api ObjectAPI, bucket string, logger logging.Logger) *Client {
	return &Client{
		api:    api,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// UploadImages stores every image in order and returns their CIDs.
func (c *Client) UploadImages(ctx context.Context, images []models.ImageAsset) ([]models.UploadedImage, error) {
	out := make([]models.UploadedImage, 0, len(images))
	for _, img := range images {
		key := path.Join(c.datePrefix("images"), c.newID(), img.Filename)

		cid, err := c.put(ctx, key, contentType(img.Filename), img.Content)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", img.Filename, err)
		}
		c.logger.Debug(ctx, "image stored", "file", img.Filename, "key", key, "cid", cid)
		out = append(out, models.UploadedImage{Filename: img.Filename, ContentID: cid})
	}
	return out, nil
}

// UploadMetadata stores meta as a JSON object and returns its CID.
func (c *Client) UploadMetadata(ctx context.Context, meta models.TokenMetadata) (string, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	key := path.Join(c.datePrefix("metadata"), c.newID()+".json")
	cid, err := c.put(ctx, key, "application/json", body)
	if err != nil {
		return "", fmt.Errorf("store metadata %s: %w", meta.Name, err)
	}
	c.logger.Debug(ctx, "metadata stored", "name", meta.Name, "key", key, "cid", cid)
	return cid, nil
}

func (c *Client) put(ctx context.Context, key, ctype string, body []byte) (string, error) {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(ctype),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	head, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("head object: %w", err)
	}

	cid := lookupCID(head.Metadata)
	if cid == "" {
		return "", fmt.Errorf("%w: %s", common.ErrMissingContentID, key)
	}
	return cid, nil
}

func (c *Client) datePrefix(kind string) string {
	d := c.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d", kind, d.Year(), d.Month(), d.Day())
}

// lookupCID ignores key case; some gateways return metadata keys capitalised.
func lookupCID(md map[string]string) string {
	for k, v := range md {
		if strings.EqualFold(k, cidMetadataKey) {
			return v
		}
	}
	return ""
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
