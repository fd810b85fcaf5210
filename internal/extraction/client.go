// Package extraction categorizes expenses and turns receipt uploads into
// transaction fields, locally where it can and through the ML service
// otherwise.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const methodML = "ml-classifier"

// MLClient is an HTTP client for the Python ML service that hosts the
// trained categorizer and the OCR pipeline.
type MLClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMLClient creates a new ML service client.
func NewMLClient(baseURL string) *MLClient {
	return &MLClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // OCR on large images is slow
		},
	}
}

// MLHealthResponse represents the health check response.
type MLHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name"`
	Version     string `json:"version"`
}

// MLCategorizeRequest is the body of POST /categorize.
type MLCategorizeRequest struct {
	StoreName   string   `json:"store_name"`
	Items       []string `json:"items,omitempty"`
	Description string   `json:"description,omitempty"`
}

// MLCategorizeResponse is the classifier's answer.
type MLCategorizeResponse struct {
	PredictedCategory string  `json:"predicted_category"`
	Confidence        float64 `json:"confidence"`
}

// MLReceiptResponse is the OCR pipeline's structured output.
type MLReceiptResponse struct {
	Store      string        `json:"store"`
	Amount     float64       `json:"amount"`
	Date       string        `json:"date"`
	Items      []ReceiptItem `json:"items"`
	Tax        float64       `json:"tax"`
	Confidence string        `json:"confidence"`
	RawText    string        `json:"raw_text"`
}

// HealthCheck checks if the ML service is healthy.
func (c *MLClient) HealthCheck(ctx context.Context) (*MLHealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var health MLHealthResponse
	if err := c.do(req, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Categorize asks the trained classifier for a category.
func (c *MLClient) Categorize(ctx context.Context, in MLCategorizeRequest) (*MLCategorizeResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out MLCategorizeResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.PredictedCategory == "" {
		return nil, &ExtractionError{
			Code:    ErrMLServiceRejected,
			Message: "classifier returned no category",
			Method:  methodML,
		}
	}
	return &out, nil
}

// ScanReceipt uploads a receipt image or PDF for OCR.
func (c *MLClient) ScanReceipt(ctx context.Context, data []byte, filename string) (*MLReceiptResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out MLReceiptResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do executes req and decodes a 200 JSON body into out. Transport failures
// and 5xx answers are retryable; 4xx answers are not.
func (c *MLClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := ErrMLServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = ErrMLServiceTimeout
		}
		return &ExtractionError{
			Code:      code,
			Message:   fmt.Sprintf("%s %s", req.Method, req.URL.Path),
			Method:    methodML,
			Retryable: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &ExtractionError{
			Code:      ErrMLServiceUnavailable,
			Message:   fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(body)),
			Method:    methodML,
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return &ExtractionError{
			Code:    ErrMLServiceRejected,
			Message: fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(body)),
			Method:  methodML,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
