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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_proxy_requests_total",
		Help: "The total number of asset-proxy requests served, by terminal outcome: success, deleted, unavailable, not_found, internal_error, bad_request",
	}, []string{"outcome"})

	UpstreamProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_upstream_probes_total",
		Help: "The total number of HEAD probes issued against provider URL templates, by result: hit, miss, error",
	}, []string{"result"})

	CatalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_catalog_refresh_total",
		Help: "The total number of provider catalog refresh attempts, by the endpoint that ultimately answered: primary, admin, legacy, failed",
	}, []string{"endpoint"})

	FormatCacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_format_cache_events_total",
		Help: "URL-format cache activity, by event: hit, stale, store",
	}, []string{"event"})
)
