package formupload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client submits files through issued forms, the way a browser would
type Client struct {
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	progressFunc  ProgressFunc
}

// ProgressFunc is called during upload to report progress
// It receives the number of bytes sent so far, form fields included
type ProgressFunc func(bytesUploaded int64)

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new form upload client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // Long timeout for large uploads
		},
		retryAttempts: 3,
		retryDelay:    1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry configures retry behavior
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// WithProgress sets a progress callback function
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// uploadOptions contains upload configuration
type uploadOptions struct {
	contentType string
	extraFields []Field
}

// UploadOption is a functional option for Upload method
type UploadOption func(*uploadOptions)

// WithContentType sets the Content-Type form field, which must satisfy the policy's prefix
func WithContentType(contentType string) UploadOption {
	return func(o *uploadOptions) {
		o.contentType = contentType
	}
}

// WithField adds a form field, e.g. x-ignore-* fields the policy does not cover
func WithField(name, value string) UploadOption {
	return func(o *uploadOptions) {
		o.extraFields = append(o.extraFields, Field{Name: name, Value: value})
	}
}

// UploadError carries the status and body of a rejected submission
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed with status %d: %s", e.StatusCode, e.Body)
}

// Upload posts data as filename through form.
// The signed fields go first and the file part last, as the storage service requires
//
// Example:
//
//	client := formupload.NewClient()
//	err := client.Upload(ctx, form, "photo.png", file, formupload.WithContentType("image/png"))
func (c *Client) Upload(ctx context.Context, form *Form, filename string, data io.Reader, opts ...UploadOption) error {
	if form == nil || form.Action == "" {
		return fmt.Errorf("%w: form action is empty", ErrMissingInput)
	}

	uploadOpts := &uploadOptions{
		contentType: "application/octet-stream",
	}
	for _, opt := range opts {
		opt(uploadOpts)
	}

	body, contentType, err := encodeMultipart(form.Fields, filename, data, uploadOpts)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			// Wait before retry
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		var reader io.Reader = bytes.NewReader(body)
		if c.progressFunc != nil {
			reader = &progressReader{
				reader:   reader,
				callback: c.progressFunc,
			}
		}

		method := form.Method
		if method == "" {
			method = FormMethod
		}
		req, err := http.NewRequestWithContext(ctx, method, form.Action, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.ContentLength = int64(len(body))
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("upload failed: %w", err)
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = &UploadError{StatusCode: resp.StatusCode, Body: string(respBody)}

		// Don't retry on client errors (4xx)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", c.retryAttempts, lastErr)
}

// encodeMultipart buffers the body so retries can replay it
func encodeMultipart(params FormParameters, filename string, data io.Reader, opts *uploadOptions) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := append(params.Fields(), opts.extraFields...)
	fields = append(fields, Field{Name: FieldContentType, Value: opts.contentType})
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}

	part, err := mw.CreateFormFile(FieldFile, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, "", fmt.Errorf("failed to read upload data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.bytesRead)
	}
	return n, err
}
