package objectstore

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Uploader stores image bytes durably and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, itemID string, index int, data []byte, mime string) (string, error)
	Delete(ctx context.Context, url string) error
}

type uploadResponse struct {
	URL string `json:"url"`
}

type ClientOpts struct {
	BaseURL string
	APIKey  string
	Bucket  string
}

// Client talks to the image object store over its HTTP API.
type Client struct {
	httpClient *resty.Client
	bucket     string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{bucket: opts.Bucket}
	if c.bucket == "" {
		c.bucket = "item-images"
	}
	c.httpClient = resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Authorization", "Bearer "+opts.APIKey)

	return &c
}

// Upload stores one image under the item's prefix and returns its durable
// URL. The object key encodes the item id and image position so re-uploads
// of the same position replace rather than accumulate.
func (c *Client) Upload(ctx context.Context, itemID string, index int, data []byte, mime string) (string, error) {
	result := &uploadResponse{}

	res, err := handleError(c.httpClient.NewRequest().
		SetContext(ctx).
		SetHeader("Content-Type", mime).
		SetQueryParam("upsert", "true").
		SetBody(data).
		SetResult(result).
		SetPathParams(map[string]string{
			"bucket": c.bucket,
			"key":    fmt.Sprintf("%s/%d", itemID, index),
		}).
		Post("/object/{bucket}/{key}"))
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if result.URL != "" {
		return result.URL, nil
	}
	// Stores that return only a key build the public URL by convention.
	return fmt.Sprintf("%s/object/public/%s/%s/%d", res.Request.RawRequest.URL.Scheme+"://"+res.Request.RawRequest.URL.Host, c.bucket, itemID, index), nil
}

// Delete removes a previously uploaded object by its public URL. Missing
// objects are not an error.
func (c *Client) Delete(ctx context.Context, url string) error {
	res, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetBody(map[string][]string{"prefixes": {url}}).
		Delete("/object/" + c.bucket)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if res.IsError() && res.StatusCode() != 404 {
		return fmt.Errorf("delete failed: %s (status: %d)", url, res.StatusCode())
	}
	return nil
}

// handleError turns >399 responses into errors. Without this, failing
// responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
