// Package registry lists workloads already registered in the external
// review tool.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

// DefaultPageSize is sent as MaxResults when the client has none configured.
const DefaultPageSize = 50

// Client calls GET {Endpoint}/workloads with NextToken pagination.
type Client struct {
	Endpoint string
	Token    string
	PageSize int

	HTTPClient *http.Client
}

type errorBody struct {
	Message string `json:"Message"`
}

// ListWorkloads fetches one page. An empty token requests the first page.
func (c *Client) ListWorkloads(ctx context.Context, token string) (domain.WorkloadPage, error) {
	if c.Endpoint == "" {
		return domain.WorkloadPage{}, fmt.Errorf("registry: endpoint required")
	}
	u, err := url.Parse(strings.TrimRight(c.Endpoint, "/") + "/workloads")
	if err != nil {
		return domain.WorkloadPage{}, fmt.Errorf("registry: %w", err)
	}
	size := c.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	q := u.Query()
	q.Set("MaxResults", strconv.Itoa(size))
	if token != "" {
		q.Set("NextToken", token)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.WorkloadPage{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.WorkloadPage{}, fmt.Errorf("registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &eb) != nil || eb.Message == "" {
			eb.Message = strings.TrimSpace(string(body))
		}
		return domain.WorkloadPage{}, fmt.Errorf("registry: status %d: %s", resp.StatusCode, eb.Message)
	}

	var page domain.WorkloadPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return domain.WorkloadPage{}, fmt.Errorf("registry: decode: %w", err)
	}
	return page, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Disabled is used when no registry endpoint is configured; it reports
// no workloads so only the local title check applies.
type Disabled struct{}

func (Disabled) ListWorkloads(context.Context, string) (domain.WorkloadPage, error) {
	return domain.WorkloadPage{}, nil
}
