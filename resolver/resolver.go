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

// Package resolver maps a caller-supplied file identifier to the one CDN
// URL that actually answers for it. The provider has used several URL
// shapes over its history and its listing API lags fresh uploads, so
// resolution is a mix of direct probing, catalog matching, and a deliberate
// bias toward "the file might still exist" when signals conflict.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/launchpadhq/assetgate/cache"
	"github.com/launchpadhq/assetgate/catalog"
	"github.com/launchpadhq/assetgate/metrics"
)

// ResolvedLocation is a key/URL pair confirmed by a successful probe. The
// format cache stores it under the originally requested identifier, which
// may differ from the resolved key.
type ResolvedLocation struct {
	Key string
	URL string
}

// Resolver generates candidate keys for a requested identifier and probes
// the known URL templates until one answers.
type Resolver struct {
	Client  *http.Client
	Catalog *catalog.Fetcher
	Formats *cache.Store[ResolvedLocation]

	// AppHostSuffix forms the app-scoped CDN host ("<appID>.<suffix>");
	// PublicHosts are the generic hosts tried after it, in priority order.
	AppHostSuffix string
	PublicHosts   []string
	DefaultAppID  string

	ProbeTimeout time.Duration

	// Identifiers longer than this are assumed plausibly real when the
	// catalog cannot confirm them, reflecting listing lag on fresh uploads.
	MinPlausibleLen int
}

// NewFormatStore creates the process-wide URL-format cache.
func NewFormatStore(ttl time.Duration) *cache.Store[ResolvedLocation] {
	return cache.NewStore[ResolvedLocation](ttl)
}

// Templates returns the known URL shapes for key, in fixed priority order:
// the app-scoped host first, then the generic public hosts. Hosts may carry
// an explicit scheme (tests point them at local servers); bare hosts get
// https.
func (r *Resolver) Templates(appID, key string) []string {
	urls := make([]string, 0, len(r.PublicHosts)+1)
	if appID != "" && r.AppHostSuffix != "" {
		urls = append(urls, fmt.Sprintf("%s/f/%s", hostBase(appID+"."+r.AppHostSuffix), key))
	}
	for _, host := range r.PublicHosts {
		urls = append(urls, fmt.Sprintf("%s/f/%s", hostBase(host), key))
	}
	return urls
}

func hostBase(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// ResolveKeys produces the candidate storage keys for requestedID. It never
// fails: an empty result means no candidate was found by any means, which
// is the one signal that lets the handler conclude permanent deletion.
func (r *Resolver) ResolveKeys(ctx context.Context, requestedID string) []string {
	// Development fixtures bypass the provider entirely.
	if strings.Contains(requestedID, "mock") || strings.Contains(requestedID, "example") {
		return []string{requestedID}
	}

	// Fast path for freshly uploaded, still-consistent files: if any direct
	// template answers, skip the catalog round-trip entirely.
	for _, url := range r.Templates(r.DefaultAppID, requestedID) {
		if r.headOK(ctx, url) {
			log.Debugln("Direct probe confirmed requested id", requestedID)
			return []string{requestedID}
		}
	}

	cat, err := r.Catalog.List(ctx)
	if err != nil {
		log.WithFields(log.Fields{"id": requestedID}).Debugln("Catalog unavailable during key resolution:", err)
		return r.plausibleFallback(requestedID)
	}

	keys := matchCatalog(cat, requestedID)
	if len(keys) == 0 {
		return r.plausibleFallback(requestedID)
	}
	log.Debugln("Catalog matched", len(keys), "keys for requested id", requestedID)
	return keys
}

// matchCatalog collects every key equal to or containing requestedID. The
// substring match is intentionally permissive: the provider has historically
// prefixed and suffixed keys inconsistently, and a wrong candidate merely
// fails its probes.
func matchCatalog(cat catalog.Catalog, requestedID string) []string {
	var keys []string
	for _, entry := range cat.Files {
		if entry.Key == "" {
			continue
		}
		if entry.Key == requestedID || strings.Contains(entry.Key, requestedID) {
			keys = append(keys, entry.Key)
		}
	}
	return keys
}

// plausibleFallback biases toward "assume it might still exist": a file can
// be fetchable moments after upload while absent from the listing, and the
// catalog alone cannot distinguish that lag from true deletion.
func (r *Resolver) plausibleFallback(requestedID string) []string {
	if len(requestedID) > r.MinPlausibleLen {
		log.Debugln("No catalog confirmation; keeping plausible id", requestedID)
		return []string{requestedID}
	}
	return nil
}

// Probe tries each candidate key against the URL templates in priority
// order and returns on the first template that answers. The winning pair is
// cached under requestedID. Returning false is not a failure signal, only
// "probing found nothing usable".
func (r *Resolver) Probe(ctx context.Context, requestedID string, keys []string, appID string) (ResolvedLocation, bool) {
	for _, key := range keys {
		for _, url := range r.Templates(appID, key) {
			if !r.headOK(ctx, url) {
				continue
			}
			if key != requestedID {
				log.Warnln("File id mismatch: requested", requestedID, "but resolved key", key)
			}
			loc := ResolvedLocation{Key: key, URL: url}
			r.Formats.Set(requestedID, loc)
			metrics.FormatCacheEventsTotal.WithLabelValues("store").Inc()
			return loc, true
		}
	}
	return ResolvedLocation{}, false
}

func (r *Resolver) headOK(ctx context.Context, url string) bool {
	return HeadOK(ctx, r.Client, r.ProbeTimeout, url)
}

// HeadOK issues one bounded existence check against url. Shared with the
// proxy handler, which probes raw client URLs and cached formats itself.
func HeadOK(ctx context.Context, client *http.Client, timeout time.Duration, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debugln("Probe error for", url, ":", err)
		metrics.UpstreamProbesTotal.WithLabelValues("error").Inc()
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.UpstreamProbesTotal.WithLabelValues("hit").Inc()
		return true
	}
	log.Debugln("Probe for", url, "replied with status", resp.StatusCode)
	metrics.UpstreamProbesTotal.WithLabelValues("miss").Inc()
	return false
}
