// Package client provides methods to do json-rpc POST requests.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 60 // seconds

	maxReadContentLength = 1024 * 1024 * 10 // 10M
)

var (
	// ErrEmptyResult response has neither error nor result
	ErrEmptyResult = errors.New("json-rpc response without result")

	defaultClient = NewHTTPClient()
)

// NewHTTPClient create a resty client for connection re-use
func NewHTTPClient() *resty.Client {
	return resty.New().
		SetTimeout(defaultTimeout*time.Second).
		SetHeader("Content-Type", "application/json")
}

// Request json-rpc request
type Request struct {
	Method  string
	Params  interface{}
	Timeout int
	ID      interface{}
}

// NewRequest new request
func NewRequest(method string, params ...interface{}) *Request {
	return &Request{
		Method:  method,
		Params:  params,
		Timeout: defaultTimeout,
		ID:      1,
	}
}

// RequestBody request body
type RequestBody struct {
	Version string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// JSONError json-rpc error object
type JSONError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (err *JSONError) Error() string {
	return fmt.Sprintf("json-rpc error %d, %s", err.Code, err.Message)
}

// StatusError non 200 http response
type StatusError struct {
	StatusCode int
	Body       string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("wrong response status %v. message: %v", err.StatusCode, err.Body)
}

type jsonrpcResponse struct {
	Version string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   *JSONError      `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// RPCPost rpc post with default client and timeout
func RPCPost(ctx context.Context, result interface{}, url, method string, params ...interface{}) error {
	req := NewRequest(method, params...)
	return RPCPostRequest(ctx, defaultClient, url, req, result)
}

// RPCPostRequest rpc post request, decode the `result` field into result.
// A response carrying an `error` field returns *JSONError,
// a response without `result` returns ErrEmptyResult.
func RPCPostRequest(ctx context.Context, httpClient *resty.Client, url string, req *Request, result interface{}) error {
	raw, err := RPCPostRaw(ctx, httpClient, url, req)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("unmarshal result error: %w", err)
	}
	return nil
}

// RPCPostRaw rpc post request and return the raw `result` field
func RPCPostRaw(ctx context.Context, httpClient *resty.Client, url string, req *Request) (json.RawMessage, error) {
	if httpClient == nil {
		httpClient = defaultClient
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	reqBody := &RequestBody{
		Version: "2.0",
		Method:  req.Method,
		Params:  req.Params,
		ID:      req.ID,
	}
	resp, err := httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post(url)
	if err != nil {
		return nil, err
	}
	return getResultFromJSONResponse(resp)
}

func getResultFromJSONResponse(resp *resty.Response) (json.RawMessage, error) {
	body := resp.Body()
	if len(body) > maxReadContentLength {
		return nil, fmt.Errorf("response body too large: %v bytes", len(body))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: string(body)}
	}
	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		return nil, fmt.Errorf("unmarshal body error: %w", err)
	}
	if jsonResp.Error != nil {
		return nil, jsonResp.Error
	}
	if len(jsonResp.Result) == 0 || string(jsonResp.Result) == "null" {
		return nil, ErrEmptyResult
	}
	return jsonResp.Result, nil
}
