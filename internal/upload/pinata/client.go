// Package pinata uploads images and metadata through the Pinata pinning API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/netx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultBaseURL = "https://api.pinata.cloud"

	pinFilePath = "/pinning/pinFileToIPFS"
	pinJSONPath = "/pinning/pinJSONToIPFS"
)

// Credentials authenticate against Pinata. JWT wins over the key pair.
type Credentials struct {
	JWT       string
	APIKey    string
	APISecret string
}

type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	logger  logging.Logger
	now     func() time.Time
}

func NewClient(baseURL string, creds Credentials, httpClient *http.Client, logger logging.Logger) (*Client, error) {
	if creds.JWT == "" && (creds.APIKey == "" || creds.APISecret == "") {
		return nil, fmt.Errorf("%w: pinata requires a JWT or an api key and secret", common.ErrConfig)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    httpClient,
		logger:  logger,
		now:     time.Now,
	}, nil
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinJSONRequest struct {
	PinataContent  models.TokenMetadata `json:"pinataContent"`
	PinataMetadata pinMetadata          `json:"pinataMetadata"`
}

// UploadImages pins every image in order. The first failure aborts the batch.
func (c *Client) UploadImages(ctx context.Context, images []models.ImageAsset) ([]models.UploadedImage, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	out := make([]models.UploadedImage, 0, len(images))
	for _, img := range images {
		cid, err := c.pinFile(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", img.Filename, err)
		}
		c.logger.Debug(ctx, "image pinned", "file", img.Filename, "cid", cid)
		out = append(out, models.UploadedImage{Filename: img.Filename, ContentID: cid})
	}
	return out, nil
}

// UploadMetadata pins a metadata document as JSON.
func (c *Client) UploadMetadata(ctx context.Context, meta models.TokenMetadata) (string, error) {
	if err := c.checkCredentials(); err != nil {
		return "", err
	}

	body, err := json.Marshal(pinJSONRequest{
		PinataContent:  meta,
		PinataMetadata: pinMetadata{Name: meta.Name},
	})
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	cid, err := c.post(ctx, pinJSONPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("pin metadata %s: %w", meta.Name, err)
	}
	c.logger.Debug(ctx, "metadata pinned", "name", meta.Name, "cid", cid)
	return cid, nil
}

func (c *Client) pinFile(ctx context.Context, img models.ImageAsset) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", img.Filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(img.Content); err != nil {
		return "", err
	}

	meta, err := json.Marshal(pinMetadata{Name: img.Filename})
	if err != nil {
		return "", err
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return c.post(ctx, pinFilePath, w.FormDataContentType(), &buf)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	raw, err := netx.Do(c.http, "pinata", req)
	if err != nil {
		return "", err
	}

	var pr pinResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if pr.IpfsHash == "" {
		return "", common.ErrMissingContentID
	}
	return pr.IpfsHash, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.JWT)
		return
	}
	req.Header.Set("pinata_api_key", c.creds.APIKey)
	req.Header.Set("pinata_secret_api_key", c.creds.APISecret)
}

// checkCredentials rejects an expired JWT before any request is made. The
// signature is not checked here; Pinata does that.
func (c *Client) checkCredentials() error {
	if c.creds.JWT == "" {
		return nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.creds.JWT, &claims); err != nil {
		return fmt.Errorf("%w: malformed pinata jwt: %w", common.ErrConfig, err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
		return fmt.Errorf("%w: pinata jwt expired at %s",
			common.ErrCredentialExpired, claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
