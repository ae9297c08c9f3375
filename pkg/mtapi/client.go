package mtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var _ Broker = (*Client)(nil)

// Client 基于 HTTP 的 MT 数据服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient proxyURL 为空时直连
func NewClient(baseURL string, timeout time.Duration, proxyURL string) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("解析代理地址失败: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// envelope 数据服务统一响应格式：{"success":true,"message":"","data":{...}}
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Connect(ctx context.Context, cred Credentials) (*AccountSummary, error) {
	var summary AccountSummary
	if err := c.do(ctx, http.MethodPost, "/connect", cred, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) GetAccountSummary(ctx context.Context, cred Credentials) (*AccountSummary, error) {
	var summary AccountSummary
	if err := c.do(ctx, http.MethodPost, "/account", cred, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

type historyRequest struct {
	Credentials
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (c *Client) GetHistory(ctx context.Context, cred Credentials, from, to time.Time) ([]*Deal, error) {
	req := historyRequest{
		Credentials: cred,
		From:        from.Unix(),
		To:          to.Unix(),
	}
	var deals []*Deal
	if err := c.do(ctx, http.MethodPost, "/history", req, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

func (c *Client) SearchServers(ctx context.Context, query string) ([]Server, error) {
	endpoint := "/servers?q=" + url.QueryEscape(query)
	servers := make([]Server, 0)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	var apiResponse envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&apiResponse)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: apiResponse.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("解析API响应JSON失败: %w", decodeErr)
	}
	if !apiResponse.Success {
		// 业务失败按请求被拒绝处理
		return &Error{StatusCode: http.StatusBadRequest, Message: apiResponse.Message}
	}

	if len(apiResponse.Data) == 0 || string(apiResponse.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(apiResponse.Data, result); err != nil {
		return fmt.Errorf("解析Data字段失败: %w", err)
	}
	return nil
}
