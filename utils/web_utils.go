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

package utils

import (
	"net/http"
	"strings"
)

// Copy headers from proxied src to dst, removing those defined
// by HTTP as "hop-by-hop" and not to be forwarded (see
// https://www.rfc-editor.org/rfc/rfc9110#field.connection)
func CopyHeader(dst, src http.Header) {
	hopByHop := make(map[string]bool)
	hopByHop["Proxy-Connection"] = true
	hopByHop["Keep-Alive"] = true
	hopByHop["TE"] = true
	hopByHop["Transfer-Encoding"] = true
	hopByHop["Upgrade"] = true
	for _, value := range src["Connection"] {
		hopByHop[http.CanonicalHeaderKey(value)] = true
	}
	for headerName, headerValues := range src {
		if hopByHop[headerName] {
			continue
		}
		for _, value := range headerValues {
			dst.Add(headerName, value)
		}
	}
}

// ExtractFileID pulls the provider file identifier out of a CDN URL,
// recognizing the two path shapes the provider has used.
func ExtractFileID(url string) string {
	for _, marker := range []string{"/f/", "/files/"} {
		if idx := strings.Index(url, marker); idx != -1 {
			id := url[idx+len(marker):]
			if q := strings.IndexByte(id, '?'); q != -1 {
				id = id[:q]
			}
			return id
		}
	}
	return ""
}
