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

package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/assetgate/catalog"
	"github.com/launchpadhq/assetgate/credentials"
)

// cdnServer answers HEAD /f/<key> with 200 for the given keys and 404
// otherwise, counting every request.
func cdnServer(t *testing.T, calls *atomic.Int64, keys ...string) *httptest.Server {
	t.Helper()
	known := make(map[string]bool)
	for _, key := range keys {
		known["/f/"+key] = true
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if known[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func listingServer(t *testing.T, calls *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestResolver(t *testing.T, hosts []string, listing *httptest.Server) *Resolver {
	t.Helper()
	cred := &credentials.Credential{AppID: "testapp", APIKey: "key"}
	apiBase := "http://127.0.0.1:0"
	if listing != nil {
		apiBase = listing.URL
	}
	return &Resolver{
		Client:          http.DefaultClient,
		Catalog:         catalog.NewFetcher(http.DefaultClient, apiBase, cred, "", catalog.NewStore(5*time.Minute)),
		Formats:         NewFormatStore(5 * time.Minute),
		PublicHosts:     hosts,
		ProbeTimeout:    3 * time.Second,
		MinPlausibleLen: 10,
	}
}

func TestTemplatesPriorityOrder(t *testing.T) {
	r := &Resolver{
		AppHostSuffix: "cdn.example",
		PublicHosts:   []string{"files.example", "http://local.test:8080"},
	}
	urls := r.Templates("myapp", "abc")
	require.Equal(t, []string{
		"https://myapp.cdn.example/f/abc",
		"https://files.example/f/abc",
		"http://local.test:8080/f/abc",
	}, urls)

	// Without an app id the app-scoped form is skipped, not emitted blank.
	urls = r.Templates("", "abc")
	require.Len(t, urls, 2)
	assert.Equal(t, "https://files.example/f/abc", urls[0])
}

func TestResolveKeysDirectProbeSkipsCatalog(t *testing.T) {
	var catalogCalls atomic.Int64
	listing := listingServer(t, &catalogCalls, `{"files":[]}`)
	cdn := cdnServer(t, nil, "fresh-upload-123")

	r := newTestResolver(t, []string{cdn.URL}, listing)
	keys := r.ResolveKeys(context.Background(), "fresh-upload-123")

	assert.Equal(t, []string{"fresh-upload-123"}, keys)
	assert.Equal(t, int64(0), catalogCalls.Load(), "direct probe success must not consult the catalog")
}

func TestResolveKeysCatalogSubstringMatch(t *testing.T) {
	listing := listingServer(t, nil, `{"files":[
		{"key":"prefix-target-id-suffix"},
		{"key":"target-id"},
		{"key":"unrelated"}
	]}`)
	cdn := cdnServer(t, nil) // all direct probes miss

	r := newTestResolver(t, []string{cdn.URL}, listing)
	keys := r.ResolveKeys(context.Background(), "target-id")

	assert.Equal(t, []string{"prefix-target-id-suffix", "target-id"}, keys)
}

func TestResolveKeysPlausibleFallbackOnEmptyCatalog(t *testing.T) {
	listing := listingServer(t, nil, `{"files":[]}`)
	cdn := cdnServer(t, nil)

	r := newTestResolver(t, []string{cdn.URL}, listing)
	keys := r.ResolveKeys(context.Background(), "abc123xyz987feed")
	assert.Equal(t, []string{"abc123xyz987feed"}, keys,
		"a plausible id must survive an empty catalog (listing lag)")
}

func TestResolveKeysEmptyForImplausibleID(t *testing.T) {
	listing := listingServer(t, nil, `{"files":[]}`)
	cdn := cdnServer(t, nil)

	r := newTestResolver(t, []string{cdn.URL}, listing)
	keys := r.ResolveKeys(context.Background(), "short1")
	assert.Empty(t, keys)
}

func TestResolveKeysPlausibleFallbackOnCatalogError(t *testing.T) {
	cdn := cdnServer(t, nil)

	// No listing server at all; the catalog call fails outright.
	r := newTestResolver(t, []string{cdn.URL}, nil)
	keys := r.ResolveKeys(context.Background(), "abc123xyz987feed")
	assert.Equal(t, []string{"abc123xyz987feed"}, keys)

	keys = r.ResolveKeys(context.Background(), "short1")
	assert.Empty(t, keys)
}

func TestResolveKeysMockPassthrough(t *testing.T) {
	r := newTestResolver(t, nil, nil)
	assert.Equal(t, []string{"mock-video"}, r.ResolveKeys(context.Background(), "mock-video"))
	assert.Equal(t, []string{"example-1"}, r.ResolveKeys(context.Background(), "example-1"))
}

func TestProbeStopsAtFirstWorkingTemplate(t *testing.T) {
	var lateCalls atomic.Int64
	miss := cdnServer(t, nil)
	hit := cdnServer(t, nil, "the-key")
	never := cdnServer(t, &lateCalls, "the-key")

	r := newTestResolver(t, []string{miss.URL, hit.URL, never.URL}, nil)
	loc, ok := r.Probe(context.Background(), "the-key", []string{"the-key"}, "")

	require.True(t, ok)
	assert.Equal(t, "the-key", loc.Key)
	assert.Equal(t, hit.URL+"/f/the-key", loc.URL)
	assert.Equal(t, int64(0), lateCalls.Load(), "templates after the first success must not be probed")
}

func TestProbeCachesUnderRequestedID(t *testing.T) {
	hit := cdnServer(t, nil, "actual-key-42")

	r := newTestResolver(t, []string{hit.URL}, nil)
	loc, ok := r.Probe(context.Background(), "requested-id", []string{"nope", "actual-key-42"}, "")
	require.True(t, ok)
	assert.Equal(t, "actual-key-42", loc.Key)

	// The cache key is the identifier the caller asked about, not the key
	// that won.
	cached, found := r.Formats.Get("requested-id")
	require.True(t, found)
	assert.Equal(t, loc, cached)

	_, found = r.Formats.Get("actual-key-42")
	assert.False(t, found)
}

func TestProbeNothingUsable(t *testing.T) {
	miss := cdnServer(t, nil)
	r := newTestResolver(t, []string{miss.URL}, nil)
	_, ok := r.Probe(context.Background(), "id-123", []string{"id-123"}, "")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Formats.Len())
}
