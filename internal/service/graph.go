package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

// GraphError is a non-2xx answer from the Graph API.
type GraphError struct {
	StatusCode int
	Code       int
	Message    string
	FbtraceID  string
}

func (e *GraphError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code from Graph API: %d", e.StatusCode)
	}
	return fmt.Sprintf("graph api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

type graphClient struct {
	baseURL string
	version string
	http    *http.Client
}

func newGraphClient(cfg config.Config) *graphClient {
	return &graphClient{
		baseURL: strings.TrimRight(cfg.Graph.BaseURL, "/"),
		version: cfg.Graph.Version,
		http:    &http.Client{Timeout: cfg.Graph.Timeout},
	}
}

func (g *graphClient) endpoint(parts ...string) string {
	return g.baseURL + "/" + g.version + "/" + strings.Join(parts, "/")
}

func (g *graphClient) postForm(ctx context.Context, endpoint string, data url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req, out)
}

func (g *graphClient) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return g.do(req, out)
}

// postFile uploads filePath under fileField together with the plain form fields.
// The file handle is closed before returning on every path.
func (g *graphClient) postFile(ctx context.Context, endpoint string, fields map[string]string, fileField, filePath string, out any) error {
	body, contentType, err := multipartBody(fields, fileField, filePath)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return g.do(req, out)
}

func multipartBody(fields map[string]string, fileField, filePath string) (*bytes.Buffer, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("error opening media file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("error writing form field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("error reading media file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("error finalising multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (g *graphClient) do(req *http.Request, out any) error {
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		graphErr := &GraphError{StatusCode: resp.StatusCode}
		var errResp transfer.GraphErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			graphErr.Code = errResp.Error.Code
			graphErr.Message = errResp.Error.Message
			graphErr.FbtraceID = errResp.Error.FbtraceID
		}
		slog.Info("graph api request failed", "url", req.URL.Path, "status", resp.StatusCode, "response", string(respBody))
		return graphErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

var errNoID = errors.New("no id returned from Graph API")
