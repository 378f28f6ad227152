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

// Package credentials turns the provider's opaque token blob into a usable
// app-id/api-key pair. The provider has shipped three incompatible token
// encodings over its history and deployments hold all of them, so parsing
// is strictly best-effort: absence is an expected outcome, not an error.
package credentials

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	log "github.com/sirupsen/logrus"
)

// legacySecretPrefix marks the original single-secret key format, where the
// whole token is the API key and the app id travels out-of-band.
const legacySecretPrefix = "sk_"

// Credential is the canonical decoded form. Treated as a value; derived once
// per resolution attempt and never persisted.
type Credential struct {
	AppID  string `json:"appId"`
	APIKey string `json:"apiKey"`
}

// Resolve parses token, trying the known encodings in order of historical
// precedence: legacy sk_ secret, base64-wrapped JSON, then raw JSON. The
// base64 form must be tried before raw JSON since both can superficially
// look like JSON and the base64 wrapping is the common case.
//
// legacyAppID supplies the out-of-band app id used by the sk_ format; when
// empty the token may still resolve via the JSON forms. Returns false when
// no encoding matches.
func Resolve(token, legacyAppID string) (Credential, bool) {
	if token == "" {
		return Credential{}, false
	}

	if strings.HasPrefix(token, legacySecretPrefix) {
		log.Debugln("Provider token uses the legacy secret-key format")
		return Credential{AppID: legacyAppID, APIKey: token}, true
	}

	// Tokens show up both padded and unpadded in the wild.
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(token); err == nil {
			if cred, ok := parseJSON(decoded); ok {
				return cred, true
			}
			break
		}
	}

	// Some callers stored the decoded form directly.
	if cred, ok := parseJSON([]byte(token)); ok {
		log.Debugln("Provider token parsed as raw JSON")
		return cred, true
	}

	log.Warnln("Provider token did not match any known encoding; length was", len(token))
	return Credential{}, false
}

func parseJSON(data []byte) (Credential, bool) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, false
	}
	if cred.AppID == "" || cred.APIKey == "" {
		return Credential{}, false
	}
	return cred, true
}
