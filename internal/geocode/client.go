// Package geocode wraps the OneMap address search API. The lookup is
// strictly best-effort: any failure - timeout, bad status, malformed
// body - yields an empty suggestion list, never an error surfaced to
// the user.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.onemap.gov.sg"
	lookupTimeout  = 5 * time.Second
	maxResults     = 10
)

// Client queries the address search endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client with the bounded default timeout.
func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: lookupTimeout},
	}
}

type searchResponse struct {
	Results []struct {
		SearchVal string `json:"SEARCHVAL"`
		Address   string `json:"ADDRESS"`
	} `json:"results"`
}

// Search returns up to maxResults deduplicated address suggestions for
// the query. Queries shorter than two characters and all failures
// return an empty slice.
func (c *Client) Search(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	params := url.Values{
		"searchVal":      {query},
		"returnGeom":     {"N"},
		"getAddrDetails": {"Y"},
		"pageNum":        {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/common/elastic/search?"+params.Encode(), nil)
	if err != nil {
		return []string{}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return []string{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return []string{}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return []string{}
	}

	seen := map[string]bool{}
	results := []string{}
	for _, item := range body.Results {
		addr := item.SearchVal
		if addr == "" {
			addr = item.Address
		}
		if addr == "" {
			continue
		}
		addr = titleCase(addr)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		results = append(results, addr)
		if len(results) == maxResults {
			break
		}
	}
	return results
}

// titleCase lowercases then capitalizes each word; OneMap returns
// addresses in all caps.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
