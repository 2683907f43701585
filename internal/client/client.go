package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// APIError is the normalized shape of any non-2xx response.
type APIError struct {
	Message string
	Status  int
	Detail  string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is the single point of outbound HTTP traffic. It injects the
// bearer header, normalizes errors and transparently refreshes an
// expired access credential once per call.
type Client struct {
	baseURL string
	store   TokenStore
	http    *http.Client
}

func New(baseURL string, store TokenStore) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		store:   store,
		http:    http.DefaultClient,
	}
}

// Store exposes the credential store for components that own session
// state. No other component should write it.
func (c *Client) Store() TokenStore { return c.store }

func (c *Client) Get(ctx context.Context, path string, includeAuth bool) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, includeAuth, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any, includeAuth bool) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, includeAuth, jsonBody(body))
}

func (c *Client) PostForm(ctx context.Context, path string, form *Form) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, true, form.body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, true, jsonBody(body))
}

func (c *Client) PatchForm(ctx context.Context, path string, form *Form) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, true, form.body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, true, nil)
}

// bodyFunc rebuilds the request body, so the one permitted retry after
// a refresh can resend it.
type bodyFunc func() (io.Reader, string, error)

func jsonBody(body any) bodyFunc {
	if body == nil {
		return nil
	}
	return func() (io.Reader, string, error) {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// Form is a multipart payload. Fields and files are buffered so the
// payload can be rebuilt for a retried request.
type Form struct {
	fields []formField
}

type formField struct {
	name, filename, contentType string
	value                       []byte
}

func (f *Form) AddField(name, value string) {
	f.fields = append(f.fields, formField{name: name, value: []byte(value)})
}

func (f *Form) AddFile(name, filename, contentType string, data []byte) {
	f.fields = append(f.fields, formField{name: name, filename: filename, contentType: contentType, value: data})
}

func (f *Form) body() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if field.filename == "" {
			if err := w.WriteField(field.name, string(field.value)); err != nil {
				return nil, "", err
			}
			continue
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field.name, field.filename))
		if field.contentType != "" {
			header.Set("Content-Type", field.contentType)
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(field.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, method, path string, includeAuth bool, body bodyFunc) ([]byte, error) {
	data, apiErr, err := c.send(ctx, method, path, includeAuth, body, c.store.Access())
	if err != nil {
		return nil, err
	}
	if apiErr == nil {
		return data, nil
	}
	if apiErr.Status != http.StatusUnauthorized || !includeAuth {
		return nil, apiErr
	}

	// One refresh, one retry, never recursive.
	access, refreshErr := c.refresh(ctx)
	if refreshErr != nil {
		_ = c.store.Clear()
		return nil, apiErr
	}
	data, retryErr, err := c.send(ctx, method, path, includeAuth, body, access)
	if err != nil {
		return nil, err
	}
	if retryErr != nil {
		return nil, retryErr
	}
	return data, nil
}

// send issues one request. Transport failures come back in err;
// non-2xx statuses come back as an *APIError so do can decide whether
// the refresh path applies.
func (c *Client) send(ctx context.Context, method, path string, includeAuth bool, body bodyFunc, access string) ([]byte, *APIError, error) {
	var reader io.Reader
	var contentType string
	if body != nil {
		var err error
		reader, contentType, err = body()
		if err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if includeAuth && access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil, nil
	}
	return nil, parseAPIError(resp.StatusCode, data), nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: http.StatusText(status),
	}
	var parsed struct {
		Detail string              `json:"detail"`
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Detail = parsed.Detail
		apiErr.Errors = parsed.Errors
		if parsed.Detail != "" {
			apiErr.Message = parsed.Detail
		}
	}
	return apiErr
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken := c.store.Refresh()
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh credential")
	}

	data, apiErr, err := c.send(ctx, http.MethodPost, "token/refresh/", false,
		jsonBody(map[string]string{"refresh": refreshToken}), "")
	if err != nil {
		return "", err
	}
	if apiErr != nil {
		return "", apiErr
	}

	var parsed struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", err
	}
	if parsed.Access == "" {
		return "", fmt.Errorf("refresh returned no access credential")
	}
	if err := c.store.SetAccess(parsed.Access); err != nil {
		return "", err
	}
	return parsed.Access, nil
}
