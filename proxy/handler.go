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

// Package proxy hosts the asset-proxy endpoint: it sequences credential
// parsing, catalog lookup, and URL probing, and is the single place where
// resolution outcomes become HTTP statuses. Stages run cheapest-first so
// the common case, a client URL that already works, costs one HEAD.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/launchpadhq/assetgate/cache"
	"github.com/launchpadhq/assetgate/catalog"
	"github.com/launchpadhq/assetgate/config"
	"github.com/launchpadhq/assetgate/credentials"
	"github.com/launchpadhq/assetgate/metrics"
	"github.com/launchpadhq/assetgate/resolver"
	"github.com/launchpadhq/assetgate/utils"
)

// Handler owns the process-lifetime caches and per-request orchestration.
type Handler struct {
	client       *http.Client // probes and listing calls
	streamClient *http.Client // final pass-through GET; inbound context governs its lifetime

	catalogStore *cache.Store[catalog.Catalog]
	formatStore  *cache.Store[resolver.ResolvedLocation]

	// Confirmed-deleted ids, mirroring the cacheable 410 so repeat requests
	// short-circuit without touching the provider.
	tombstones *ttlcache.Cache[string, string]

	// The fetcher is handler-lifetime so its singleflight group spans
	// requests; two cold-cache requests racing on an expired catalog
	// collapse into one upstream listing call.
	fetcher *catalog.Fetcher
	appID   string

	appHostSuffix string
	publicHosts   []string
	hostMarkers   []string

	probeTimeout    time.Duration
	requestTimeout  time.Duration
	minPlausibleLen int
}

// NewHandler builds a Handler from the viper configuration.
func NewHandler() *Handler {
	transport := config.GetTransport()
	h := &Handler{
		client:       &http.Client{Transport: transport},
		streamClient: &http.Client{Transport: transport},

		catalogStore: catalog.NewStore(viper.GetDuration(config.ProxyCatalogTTL)),
		formatStore:  resolver.NewFormatStore(viper.GetDuration(config.ProxyFormatTTL)),
		tombstones: ttlcache.New(
			ttlcache.WithTTL[string, string](viper.GetDuration(config.ProxyTombstoneTTL)),
		),

		appHostSuffix: viper.GetString(config.ProviderAppHostSuffix),
		publicHosts:   viper.GetStringSlice(config.ProviderPublicHosts),
		hostMarkers:   viper.GetStringSlice(config.ProviderHostMarkers),

		probeTimeout:    viper.GetDuration(config.ProxyProbeTimeout),
		requestTimeout:  viper.GetDuration(config.ProxyRequestTimeout),
		minPlausibleLen: viper.GetInt(config.ProxyMinPlausibleLen),
	}

	// Credential and legacy inputs never change within a process, so the
	// parse happens once here rather than per request.
	legacyAppID := viper.GetString(config.ProviderLegacyAppId)
	cred, credOK := credentials.Resolve(viper.GetString(config.ProviderToken), legacyAppID)
	var credPtr *credentials.Credential
	h.appID = legacyAppID
	if credOK {
		credPtr = &cred
		if cred.AppID != "" {
			h.appID = cred.AppID
		}
	}
	h.fetcher = catalog.NewFetcher(
		h.client,
		viper.GetString(config.ProviderApiBase),
		credPtr,
		viper.GetString(config.ProviderLegacySecret),
		h.catalogStore,
	)

	go h.tombstones.Start()
	return h
}

// Close stops the tombstone janitor. The production handler lives for the
// whole process; tests construct many handlers and must not leak goroutines.
func (h *Handler) Close() {
	h.tombstones.Stop()
}

// RegisterAPI mounts the proxy routes on the engine.
func (h *Handler) RegisterAPI(engine *gin.Engine) {
	group := engine.Group("/api/v1.0")
	group.GET("/asset-proxy", h.handleAssetProxy)
	group.HEAD("/asset-proxy", h.handleAssetProxy)
}

func (h *Handler) handleAssetProxy(gctx *gin.Context) {
	assetURL := gctx.Query("url")
	if assetURL == "" {
		metrics.ProxyRequestsTotal.WithLabelValues("bad_request").Inc()
		gctx.JSON(http.StatusBadRequest, apiResp{Error: "No URL provided"})
		return
	}

	fileID := gctx.Query("fileId")
	if fileID == "" && h.isProviderURL(assetURL) {
		fileID = utils.ExtractFileID(assetURL)
	}
	isHead := gctx.Request.Method == http.MethodHead

	// Resolution must never escape to a framework-level 500; anything
	// unexpected is converted to the structured envelope here.
	defer func() {
		if r := recover(); r != nil {
			log.Errorln("Unexpected error in asset proxy:", r)
			metrics.ProxyRequestsTotal.WithLabelValues("internal_error").Inc()
			gctx.Header("Cache-Control", "no-store")
			gctx.JSON(http.StatusInternalServerError, apiResp{
				Error:   "Internal server error",
				URL:     assetURL,
				Details: fmt.Sprint(r),
			})
		}
	}()

	// Whole-request deadline; every stage consumes from this budget so a
	// client is never kept waiting across the full fallback ladder.
	ctx, cancel := context.WithTimeout(gctx.Request.Context(), h.requestTimeout)
	defer cancel()

	h.render(gctx, h.resolve(ctx, assetURL, fileID), isHead)
}

// resolve runs the per-request state machine and reports a terminal
// Outcome. Stage order follows the escalation ladder: direct URL, cached
// format, then catalog and template probing.
func (h *Handler) resolve(ctx context.Context, assetURL, fileID string) Outcome {
	if fileID != "" && h.tombstones.Get(fileID) != nil {
		log.Debugln("Tombstoned file id", fileID, "short-circuited to deleted")
		return deletedOutcome(assetURL, fileID)
	}

	// The URL as the client supplied it is overwhelmingly likely to work.
	if resolver.HeadOK(ctx, h.client, h.probeTimeout, assetURL) {
		return successOutcome(assetURL)
	}

	if fileID != "" {
		if loc, ok := h.formatStore.Get(fileID); ok {
			// A cache hit is only trusted after revalidation; a dead cached
			// URL is evicted and probing restarts from scratch.
			if resolver.HeadOK(ctx, h.client, h.probeTimeout, loc.URL) {
				metrics.FormatCacheEventsTotal.WithLabelValues("hit").Inc()
				return successOutcome(loc.URL)
			}
			log.Debugln("Cached URL format for", fileID, "no longer valid; discarding")
			metrics.FormatCacheEventsTotal.WithLabelValues("stale").Inc()
			h.formatStore.Delete(fileID)
		}
	}

	// Provider machinery only applies to provider-addressed assets with a
	// recoverable identifier; anything else has nothing left to try.
	if fileID == "" || !h.isProviderURL(assetURL) {
		return notFoundOutcome(assetURL, fileID)
	}

	res := &resolver.Resolver{
		Client:          h.client,
		Catalog:         h.fetcher,
		Formats:         h.formatStore,
		AppHostSuffix:   h.appHostSuffix,
		PublicHosts:     h.publicHosts,
		DefaultAppID:    h.appID,
		ProbeTimeout:    h.probeTimeout,
		MinPlausibleLen: h.minPlausibleLen,
	}

	keys := res.ResolveKeys(ctx, fileID)
	if len(keys) == 0 {
		// One final direct re-check before concluding deletion; only an
		// empty candidate list plus a dead raw URL may produce the 410.
		if resolver.HeadOK(ctx, h.client, h.probeTimeout, assetURL) {
			return successOutcome(assetURL)
		}
		log.Infoln("File", fileID, "confirmed permanently deleted after exhaustive checks")
		h.tombstones.Set(fileID, assetURL, ttlcache.DefaultTTL)
		return deletedOutcome(assetURL, fileID)
	}

	if loc, ok := res.Probe(ctx, fileID, keys, h.appID); ok {
		return successOutcome(loc.URL)
	}

	return h.rawFallback(ctx, assetURL, fileID)
}

// rawFallback is the last resort: one more attempt at the URL as given.
// This is the single stage where a transport failure surfaces as
// "unavailable" rather than feeding the degradation policy.
func (h *Handler) rawFallback(ctx context.Context, assetURL, fileID string) Outcome {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, assetURL, nil)
	if err != nil {
		return notFoundOutcome(assetURL, fileID)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		log.Warnln("Direct proxy attempt for", assetURL, "failed:", err)
		return unavailableOutcome(assetURL, fileID, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return successOutcome(assetURL)
	}
	return notFoundOutcome(assetURL, fileID)
}

func (h *Handler) render(gctx *gin.Context, out Outcome, isHead bool) {
	switch out.Kind {
	case OutcomeSuccess:
		metrics.ProxyRequestsTotal.WithLabelValues("success").Inc()
		if isHead {
			gctx.Status(http.StatusOK)
			return
		}
		h.stream(gctx, out.URL)

	case OutcomeDeleted:
		metrics.ProxyRequestsTotal.WithLabelValues("deleted").Inc()
		// The negative result is itself cacheable, unlike transient failures.
		gctx.Header("X-File-Status", "deleted")
		gctx.Header("Cache-Control", "public, max-age=86400")
		gctx.JSON(http.StatusGone, apiResp{
			Error:  "File has been permanently deleted",
			URL:    out.URL,
			FileID: out.RequestedID,
		})

	case OutcomeUnavailable:
		metrics.ProxyRequestsTotal.WithLabelValues("unavailable").Inc()
		gctx.Header("Retry-After", "5")
		gctx.Header("Cache-Control", "no-store")
		gctx.JSON(http.StatusServiceUnavailable, apiResp{
			Error:   "Service temporarily unavailable",
			URL:     out.URL,
			FileID:  out.RequestedID,
			Retry:   true,
			Details: out.Reason,
		})

	default:
		metrics.ProxyRequestsTotal.WithLabelValues("not_found").Inc()
		gctx.JSON(http.StatusNotFound, apiResp{
			Error:  "File not found after multiple attempts",
			URL:    out.URL,
			FileID: out.RequestedID,
		})
	}
}

// stream forwards the upstream response through a single GET, copying
// non-hop-by-hop headers and the upstream status as-is. The inbound
// request's context governs the fetch, so a disconnecting client cancels
// the upstream transfer.
func (h *Handler) stream(gctx *gin.Context, url string) {
	req, err := http.NewRequestWithContext(gctx.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		gctx.Header("Cache-Control", "no-store")
		gctx.JSON(http.StatusInternalServerError, apiResp{Error: "Internal server error", URL: url, Details: err.Error()})
		return
	}
	resp, err := h.streamClient.Do(req)
	if err != nil {
		gctx.Header("Retry-After", "5")
		gctx.Header("Cache-Control", "no-store")
		gctx.JSON(http.StatusServiceUnavailable, apiResp{
			Error:   "Service temporarily unavailable",
			URL:     url,
			Retry:   true,
			Details: err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	utils.CopyHeader(gctx.Writer.Header(), resp.Header)
	gctx.Status(resp.StatusCode)
	if _, err := io.Copy(gctx.Writer, resp.Body); err != nil {
		log.Debugln("Pass-through stream for", url, "ended early:", err)
	}
}

func (h *Handler) isProviderURL(assetURL string) bool {
	for _, marker := range h.hostMarkers {
		if strings.Contains(assetURL, marker) {
			return true
		}
	}
	return false
}
