package tradingview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/newsfeed"
)

const (
	DefaultListURL  = "https://news-mediator.tradingview.com/news-flow/v1/news"
	DefaultBaseURL  = "https://www.tradingview.com"
	defaultExchange = "NASDAQ"
	defaultLanguage = "en"

	noTitle       = "No Title"
	unknownSource = "Unknown Source"
)

// NewsClient lists headlines from the TradingView news-flow endpoint.
type NewsClient struct {
	client  *http.Client
	listURL string
	baseURL string
}

var _ newsfeed.Provider = (*NewsClient)(nil)

// NewNewsClient wires an HTTP client; empty URLs fall back to the public endpoints.
func NewNewsClient(client *http.Client, listURL, baseURL string) *NewsClient {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if strings.TrimSpace(listURL) == "" {
		listURL = DefaultListURL
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &NewsClient{
		client:  client,
		listURL: listURL,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Name identifies the provider inside the registry.
func (c *NewsClient) Name() string {
	return "tradingview"
}

type newsFlowResponse struct {
	Items []newsFlowItem `json:"items"`
}

type newsFlowItem struct {
	Title          *string `json:"title"`
	Source         *string `json:"source"`
	Published      int64   `json:"published"`
	Link           string  `json:"link"`
	StoryPath      string  `json:"storyPath"`
	RelatedSymbols []struct {
		Symbol string `json:"symbol"`
	} `json:"relatedSymbols"`
}

// List returns the headlines published inside the request window whose
// article lives on the TradingView site.
func (c *NewsClient) List(ctx context.Context, req newsfeed.Request) ([]domain.Headline, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	pageURL, err := buildListURL(c.listURL, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request news list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tradingview returned %s", resp.Status)
	}

	var payload newsFlowResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news list: %w", err)
	}

	headlines := make([]domain.Headline, 0, len(payload.Items))
	for _, item := range payload.Items {
		headline, ok := c.toHeadline(item, req)
		if ok {
			headlines = append(headlines, headline)
		}
	}
	return headlines, nil
}

func (c *NewsClient) toHeadline(item newsFlowItem, req newsfeed.Request) (domain.Headline, bool) {
	published := time.Unix(item.Published, 0).UTC()
	if !req.Contains(published) {
		return domain.Headline{}, false
	}

	link := item.Link
	if link == "" {
		link = c.baseURL + item.StoryPath
	}
	if !strings.HasPrefix(link, c.baseURL) {
		return domain.Headline{}, false
	}

	related := make([]string, 0, len(item.RelatedSymbols))
	for _, s := range item.RelatedSymbols {
		related = append(related, s.Symbol)
	}

	return domain.Headline{
		Title:          valueOr(item.Title, noTitle),
		Source:         valueOr(item.Source, unknownSource),
		Published:      published,
		RelatedSymbols: related,
		Link:           link,
	}, true
}

func buildListURL(base string, req newsfeed.Request) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid list url %s: %w", base, err)
	}

	exchange := strings.TrimSpace(req.Exchange)
	if exchange == "" {
		exchange = defaultExchange
	}
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = defaultLanguage
	}

	query := parsed.Query()
	query.Add("filter", "lang:"+lang)
	query.Add("filter", fmt.Sprintf("symbol:%s:%s", exchange, strings.ToUpper(req.Symbol)))
	query.Set("streaming", "false")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
