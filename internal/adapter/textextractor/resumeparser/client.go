// Package resumeparser integrates the external resume parsing service.
//
// The service accepts a CV file and returns either plain extracted text
// or a structured analysis. Calls are retried with exponential backoff:
// the parser restarts often during deploys and its work is idempotent.
package resumeparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/pkg/textx"
)

// Client implements domain.ResumeAnalyzer over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New constructs a resume parser client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) postFile(ctx domain.Context, path string, fileName string, data []byte, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("op=resumeparser.form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("op=resumeparser.form: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("op=resumeparser.form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("op=resumeparser.form: %w", err)
	}

	var respBody []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("parser status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("parser status %d", resp.StatusCode))
		}
		respBody = b
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 45 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("op=resumeparser.post: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return respBody, nil
}

// ExtractText uploads the CV file and returns sanitized plain text.
// Unsupported file types fail fast before any network call.
func (c *Client) ExtractText(ctx domain.Context, fileName string, data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !supportedMIME(mt.String()) {
		return "", fmt.Errorf("op=resumeparser.extract: %w: %s", domain.ErrCVUnreadable, mt.String())
	}
	body, err := c.postFile(ctx, "/extract-text", fileName, data, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("op=resumeparser.extract: decode: %w", err)
	}
	return textx.SanitizeText(out.Text), nil
}

// Analyze uploads the CV file, optionally alongside a job description
// for targeted suggestions, and returns the parser's structured view.
func (c *Client) Analyze(ctx domain.Context, fileName string, data []byte, jobDescription string) (domain.ResumeAnalysis, error) {
	mt := mimetype.Detect(data)
	if !supportedMIME(mt.String()) {
		return domain.ResumeAnalysis{}, fmt.Errorf("op=resumeparser.analyze: %w: %s", domain.ErrCVUnreadable, mt.String())
	}
	var fields map[string]string
	if jobDescription != "" {
		fields = map[string]string{"job_description": jobDescription}
	}
	body, err := c.postFile(ctx, "/analyze", fileName, data, fields)
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	var out domain.ResumeAnalysis
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("op=resumeparser.analyze: decode: %w", err)
	}
	out.RawText = textx.SanitizeText(out.RawText)
	return out, nil
}

func supportedMIME(mt string) bool {
	switch mt {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain; charset=utf-8",
		"text/plain":
		return true
	}
	return false
}
