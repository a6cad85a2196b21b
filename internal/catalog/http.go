package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Stardust/internal/model"
)

// HTTPFetcher loads catalogs from a JSON settings endpoint.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// settingsDoc is the expected JSON shape of the settings endpoint. Each
// field is independently optional.
type settingsDoc struct {
	Upgrades     []model.Upgrade     `json:"upgrades"`
	Deals        []dealDoc           `json:"deals"`
	Tasks        []model.Task        `json:"tasks"`
	DailyRewards []model.DailyReward `json:"daily_rewards"`
	Admin        *model.AdminConfig  `json:"admin"`
}

// dealDoc carries durations as Go duration strings ("30m", "24h").
type dealDoc struct {
	model.Deal
	BoostDuration string `json:"boost_duration"`
	Cooldown      string `json:"cooldown"`
}

func (f *HTTPFetcher) FetchCatalogs(ctx context.Context) (model.RemoteCatalogs, error) {
	endpoint := f.BaseURL + "/api/v1/settings"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.RemoteCatalogs{}, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.RemoteCatalogs{}, fmt.Errorf("fetch settings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.RemoteCatalogs{}, fmt.Errorf("fetch settings: status %d, body: %s", resp.StatusCode, string(body))
	}
	var doc settingsDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return model.RemoteCatalogs{}, fmt.Errorf("decode settings: %w", err)
	}

	out := model.RemoteCatalogs{
		Upgrades:     doc.Upgrades,
		Tasks:        doc.Tasks,
		DailyRewards: doc.DailyRewards,
		Admin:        doc.Admin,
	}
	if doc.Deals != nil {
		out.Deals = make([]model.Deal, 0, len(doc.Deals))
		for _, d := range doc.Deals {
			deal := d.Deal
			if deal.BoostDuration, err = parseDuration(d.BoostDuration); err != nil {
				return model.RemoteCatalogs{}, fmt.Errorf("deal %s boost_duration: %w", deal.ID, err)
			}
			if deal.Cooldown, err = parseDuration(d.Cooldown); err != nil {
				return model.RemoteCatalogs{}, fmt.Errorf("deal %s cooldown: %w", deal.ID, err)
			}
			out.Deals = append(out.Deals, deal)
		}
	}
	return out, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
