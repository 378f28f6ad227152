/***************************************************************
 *
 * Copyright (C) 2026, LaunchpadHQ, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

// Package catalog fetches and caches the provider's full file listing.
// The listing API authenticates with a query parameter (not a header) and
// has accumulated fallback endpoints over the provider's history; a fetch
// only fails after every fallback is exhausted.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/launchpadhq/assetgate/cache"
	"github.com/launchpadhq/assetgate/credentials"
	"github.com/launchpadhq/assetgate/metrics"
)

// The catalog is global, not per-file, so it lives under one fixed key.
const catalogCacheKey = "provider-files"

type (
	// Entry is one file known to the provider at listing time. Raw carries
	// whatever attributes the provider attached; only Key is interpreted.
	Entry struct {
		Key string
		Raw map[string]any
	}

	// Catalog is the provider's full listing.
	Catalog struct {
		Files []Entry `json:"files"`
	}

	// UpstreamError records the last HTTP status and body seen across all
	// listing attempts. It only escapes Fetcher.List when every fallback
	// failed; callers are expected to have their own degradation policy.
	UpstreamError struct {
		StatusCode int
		Body       string
		innerErr   error
	}

	// Fetcher resolves the listing through the cache. Credential and legacy
	// inputs are captured at construction; the cache is shared process-wide.
	Fetcher struct {
		Client       *http.Client
		APIBase      string
		Cred         *credentials.Credential
		LegacySecret string

		store *cache.Store[Catalog]
		group singleflight.Group
	}
)

// UnmarshalJSON keeps every provider attribute in Raw while lifting out the
// one field we interpret.
func (e *Entry) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Raw = raw
	if key, ok := raw["key"].(string); ok {
		e.Key = key
	}
	return nil
}

func (e *UpstreamError) Error() string {
	if e.innerErr != nil {
		return fmt.Sprintf("provider listing failed: %v", e.innerErr)
	}
	return fmt.Sprintf("provider listing failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.innerErr
}

// NewFetcher wires a Fetcher to the shared catalog store.
func NewFetcher(client *http.Client, apiBase string, cred *credentials.Credential, legacySecret string, store *cache.Store[Catalog]) *Fetcher {
	return &Fetcher{
		Client:       client,
		APIBase:      apiBase,
		Cred:         cred,
		LegacySecret: legacySecret,
		store:        store,
	}
}

// NewStore creates the process-wide catalog cache.
func NewStore(ttl time.Duration) *cache.Store[Catalog] {
	return cache.NewStore[Catalog](ttl)
}

// List returns the provider's listing, from cache when fresh. Two requests
// racing on an expired entry are collapsed into one upstream fetch; the
// cached value is idempotent so the dedup is an optimization, not a
// correctness requirement.
func (f *Fetcher) List(ctx context.Context) (Catalog, error) {
	if cat, ok := f.store.Get(catalogCacheKey); ok {
		log.Debugln("Using cached provider catalog with", len(cat.Files), "files")
		return cat, nil
	}

	result, err, _ := f.group.Do(catalogCacheKey, func() (interface{}, error) {
		cat, err := f.refresh(ctx)
		if err != nil {
			return Catalog{}, err
		}
		f.store.Set(catalogCacheKey, cat)
		return cat, nil
	})
	if err != nil {
		return Catalog{}, err
	}
	return result.(Catalog), nil
}

// refresh walks the fallback chain: primary listing endpoint, then the
// admin variant on auth-class failures, then the legacy secret when the
// configured token never parsed at all.
func (f *Fetcher) refresh(ctx context.Context) (Catalog, error) {
	lastErr := &UpstreamError{}

	if f.Cred != nil {
		cat, status, body, err := f.fetch(ctx, "/v1/files", f.Cred.APIKey)
		if err == nil {
			metrics.CatalogRefreshTotal.WithLabelValues("primary").Inc()
			return cat, nil
		}
		recordAttempt(lastErr, status, body, err)

		// 400/401 historically means the key is valid but scoped to the
		// admin listing path.
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			log.Debugln("Primary listing rejected the key; retrying against the admin endpoint")
			cat, status, body, err = f.fetch(ctx, "/v1/admin/files", f.Cred.APIKey)
			if err == nil {
				metrics.CatalogRefreshTotal.WithLabelValues("admin").Inc()
				return cat, nil
			}
			recordAttempt(lastErr, status, body, err)
		}
	} else if f.LegacySecret != "" {
		log.Debugln("No parsed credential available; trying the legacy secret")
		cat, status, body, err := f.fetch(ctx, "/v1/files", f.LegacySecret)
		if err == nil {
			metrics.CatalogRefreshTotal.WithLabelValues("legacy").Inc()
			return cat, nil
		}
		recordAttempt(lastErr, status, body, err)
	}

	if lastErr.innerErr == nil {
		lastErr.innerErr = errors.New("no valid provider credentials available")
	}
	metrics.CatalogRefreshTotal.WithLabelValues("failed").Inc()
	return Catalog{}, lastErr
}

// fetch performs one listing call. The provider requires the key as a query
// parameter; sending it as a header returns 401 regardless of validity.
func (f *Fetcher) fetch(ctx context.Context, path, apiKey string) (Catalog, int, string, error) {
	query := url.Values{}
	query.Set("apiKey", apiKey)
	endpoint := fmt.Sprintf("%s%s?%s", f.APIBase, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Catalog{}, 0, "", errors.Wrap(err, "failed to construct listing request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return Catalog{}, 0, "", errors.Wrapf(err, "listing request to %s%s failed", f.APIBase, path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Catalog{}, resp.StatusCode, "", errors.Wrap(err, "failed to read listing response")
	}
	if resp.StatusCode != http.StatusOK {
		return Catalog{}, resp.StatusCode, string(body), errors.Errorf("listing endpoint %s replied with status %d", path, resp.StatusCode)
	}

	var cat Catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		return Catalog{}, resp.StatusCode, string(body), errors.Wrap(err, "malformed listing response")
	}
	log.Debugln("Provider listing at", path, "returned", len(cat.Files), "files")
	return cat, resp.StatusCode, string(body), nil
}

// recordAttempt remembers the most recent failure so the terminal error
// carries the last status and body seen, for observability.
func recordAttempt(upErr *UpstreamError, status int, body string, err error) {
	upErr.StatusCode = status
	upErr.Body = body
	upErr.innerErr = err
}
