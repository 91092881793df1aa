package biqu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// maxPageSize bounds a single page read.
const maxPageSize = 16 << 20

var defaultHeaders = map[string]string{
	"Accept":           "application/json",
	"Accept-Language":  "zh,en;q=0.9,zh-CN;q=0.8",
	"Cache-Control":    "no-cache",
	"Pragma":           "no-cache",
	"Sec-Fetch-Dest":   "empty",
	"Sec-Fetch-Mode":   "cors",
	"Sec-Fetch-Site":   "same-origin",
	"User-Agent":       "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
	"X-Requested-With": "XMLHttpRequest",
}

// Client talks to the remote site. Session cookies live in its jar and are
// shared by every request made through the same Client.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// Resolve turns a site-relative href into an absolute locator.
func (c *Client) Resolve(href string) string {
	return resolve(c.base, href)
}

// FetchPage performs a GET and returns the raw body.
func (c *Client) FetchPage(ctx context.Context, locator string) ([]byte, error) {
	return c.get(ctx, locator, nil)
}

func (c *Client) get(ctx context.Context, locator string, extra map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", errpkg.ErrTransport, err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errpkg.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: bad status: %s", errpkg.ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errpkg.ErrTransport, err)
	}
	return body, nil
}

type searchHit struct {
	ArticleName string `json:"articlename"`
	Author      string `json:"author"`
	URLList     string `json:"url_list"`
}

// Search queries the site for novels matching keyword. An empty result means
// the site found nothing; transport or decoding failures are returned as
// errors wrapping ErrTransport.
func (c *Client) Search(ctx context.Context, keyword string) ([]domain.Novel, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []domain.Novel{}, nil
	}

	q := url.Values{"q": {keyword}}.Encode()

	// The search endpoint only answers once the hm.html visit has set the session cookie.
	if _, err := c.get(ctx, c.Resolve("/user/hm.html?"+q), nil); err != nil {
		c.logger.Error("failed to obtain search cookie", "keyword", keyword, "error", err)
		return nil, fmt.Errorf("obtain search cookie: %w", err)
	}

	body, err := c.get(ctx, c.Resolve("/user/search.html?"+q), map[string]string{
		"Referer": c.Resolve("/s?" + q),
	})
	if err != nil {
		c.logger.Error("search request failed", "keyword", keyword, "error", err)
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}

	return decodeSearch(body, c.base)
}

// decodeSearch accepts a JSON array of hits. Any other JSON value (the site
// answers 1 when nothing matches) is treated as no results.
func decodeSearch(body []byte, base *url.URL) ([]domain.Novel, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: search response is not JSON", errpkg.ErrTransport)
		}
		return []domain.Novel{}, nil
	}

	var hits []searchHit
	if err := json.Unmarshal(trimmed, &hits); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", errpkg.ErrTransport, err)
	}

	novels := make([]domain.Novel, 0, len(hits))
	for _, h := range hits {
		if h.URLList == "" {
			continue
		}
		novels = append(novels, domain.Novel{
			Name:    h.ArticleName,
			Author:  h.Author,
			Locator: resolve(base, h.URLList),
		})
	}
	return novels, nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
