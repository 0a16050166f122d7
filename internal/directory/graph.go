// Package directory wraps the external Graph-style directory: paged
// users/groups fetch with retry and validity filtering, a cached front with
// proactive background refresh, and the typeahead search over both lists.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"laci-tracker/internal/domain"
)

const (
	maxRetries = 3
	pageSize   = 999
)

// retryBaseDelay scales the linear backoff; shortened in tests.
var retryBaseDelay = time.Second

// GraphClient implements domain.DirectoryClient against a Graph-style REST
// API: bearer token, $select/$top paging via @odata.nextLink.
type GraphClient struct {
	baseURL        string
	token          string
	internalSuffix string
	httpClient     *http.Client
	logger         *slog.Logger
}

func NewGraphClient(baseURL, token, internalSuffix string, logger *slog.Logger) *GraphClient {
	return &GraphClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		internalSuffix: internalSuffix,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		logger:         logger,
	}
}

type page struct {
	Value    []domain.DirectoryEntity `json:"value"`
	NextLink string                   `json:"@odata.nextLink"`
}

// Users fetches every directory user that passes the validity filter.
func (c *GraphClient) Users(ctx context.Context) ([]domain.DirectoryEntity, error) {
	return retry(ctx, c.logger, func() ([]domain.DirectoryEntity, error) {
		users, err := c.fetchAll(ctx,
			fmt.Sprintf("/users?$select=id,displayName,userPrincipalName,mail&$top=%d", pageSize))
		if err != nil {
			return nil, err
		}
		valid := users[:0]
		for _, u := range users {
			if c.isValidUser(u) {
				valid = append(valid, u)
			}
		}
		return valid, nil
	})
}

// Groups fetches mail-enabled and security groups, filters, dedupes by id,
// and sorts by display name.
func (c *GraphClient) Groups(ctx context.Context) ([]domain.DirectoryEntity, error) {
	return retry(ctx, c.logger, func() ([]domain.DirectoryEntity, error) {
		mailGroups, err := c.fetchAll(ctx,
			fmt.Sprintf("/groups?$select=id,displayName,mail,proxyAddresses&$top=%d", pageSize))
		if err != nil {
			return nil, err
		}
		securityGroups, err := c.fetchAll(ctx,
			fmt.Sprintf("/groups?$select=id,displayName&$filter=%s&$top=%d",
				url.QueryEscape("mailEnabled eq false and securityEnabled eq true"), pageSize))
		if err != nil {
			return nil, err
		}

		all := make([]domain.DirectoryEntity, 0, len(mailGroups)+len(securityGroups))
		seen := make(map[string]struct{})
		for _, g := range append(mailGroups, securityGroups...) {
			g, ok := c.cleanGroup(g)
			if !ok {
				continue
			}
			if _, dup := seen[g.ID]; dup {
				continue
			}
			seen[g.ID] = struct{}{}
			all = append(all, g)
		}

		sortByDisplayName(all)
		return all, nil
	})
}

func (c *GraphClient) fetchAll(ctx context.Context, path string) ([]domain.DirectoryEntity, error) {
	var all []domain.DirectoryEntity
	next := c.baseURL + path
	for next != "" {
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
		next = p.NextLink
	}
	return all, nil
}

func (c *GraphClient) fetchPage(ctx context.Context, rawURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("directory request %s: status %d: %s", rawURL, resp.StatusCode, body)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode directory page: %w", err)
	}
	return &p, nil
}

// isValidUser drops accounts that should never be assignable: users without
// a UPN or mail, guest accounts (#EXT#), disabled-convention names (leading
// '-'), test accounts, and internal-tenant-only addresses.
func (c *GraphClient) isValidUser(u domain.DirectoryEntity) bool {
	if u.UserPrincipalName == "" || u.Mail == "" {
		return false
	}
	if strings.HasPrefix(u.UserPrincipalName, "-") {
		return false
	}
	if strings.Contains(u.UserPrincipalName, "#EXT#") {
		return false
	}
	if strings.Contains(strings.ToLower(u.DisplayName), "test") {
		return false
	}
	if strings.Contains(u.UserPrincipalName, c.internalSuffix) {
		return false
	}
	return !strings.Contains(u.Mail, c.internalSuffix)
}

// cleanGroup drops internal-tenant mail groups and strips spo:/SMTP: proxy
// address noise.
func (c *GraphClient) cleanGroup(g domain.DirectoryEntity) (domain.DirectoryEntity, bool) {
	if g.Mail != "" && strings.Contains(strings.ToLower(g.Mail), c.internalSuffix) {
		return g, false
	}
	if len(g.ProxyAddresses) > 0 {
		cleaned := make([]string, 0, len(g.ProxyAddresses))
		for _, addr := range g.ProxyAddresses {
			lower := strings.ToLower(addr)
			if strings.HasPrefix(lower, "spo:") || strings.Contains(lower, c.internalSuffix) {
				continue
			}
			addr = strings.TrimPrefix(strings.TrimPrefix(addr, "SMTP:"), "smtp:")
			cleaned = append(cleaned, addr)
		}
		g.ProxyAddresses = cleaned
	}
	return g, true
}

// retry runs op up to maxRetries times with linear backoff between attempts.
func retry(ctx context.Context, logger *slog.Logger, op func() ([]domain.DirectoryEntity, error)) ([]domain.DirectoryEntity, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		out, err := op()
		if err == nil {
			return out, nil
		}
		lastErr = err
		logger.Error("directory fetch attempt failed", "attempt", attempt, "error", err)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBaseDelay):
		}
	}
	return nil, lastErr
}

func sortByDisplayName(entities []domain.DirectoryEntity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].DisplayName < entities[j].DisplayName
	})
}
