package impl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nvbach/questwatch/internal/config"
	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/retry"
	"github.com/nvbach/questwatch/internal/sources/discord"
)

const questsPath = "/quests/@me"

// Fetcher is the HTTP implementation of discord.Fetcher.
type Fetcher struct {
	client          *http.Client
	baseURL         string
	authorization   string
	superProperties string
	userAgent       string
}

func NewFetcher(cfg config.DiscordEnvConfig) *Fetcher {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:          &http.Client{Timeout: timeout},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		authorization:   cfg.Authorization,
		superProperties: cfg.SuperProperties,
		userAgent:       cfg.UserAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]core.Quest, error) {
	var quests []core.Quest
	var authErr *discord.AuthError

	err := retry.Do(ctx, retry.Config{Attempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
		fetched, err := f.fetchOnce(ctx)
		if err != nil {
			var ae *discord.AuthError
			if errors.As(err, &ae) {
				// Credentials never heal within a run; stop retrying.
				authErr = ae
				return nil
			}
			return err
		}
		quests = fetched
		return nil
	})
	if authErr != nil {
		return nil, authErr
	}
	if err != nil {
		return nil, &discord.FetchError{Err: err}
	}
	return quests, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]core.Quest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+questsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", f.authorization)
	req.Header.Set("Referer", "https://discord.com/discovery/quests")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("X-Discord-Locale", "en-US")
	req.Header.Set("X-Super-Properties", f.superProperties)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &discord.AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("quest API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return discord.DecodeSnapshot(body)
}
