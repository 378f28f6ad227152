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

package credentials

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeToken(t *testing.T, payload string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestResolveBase64Token(t *testing.T) {
	token := encodeToken(t, `{"appId":"myapp42","apiKey":"key-abcdef"}`)
	cred, ok := Resolve(token, "")
	require.True(t, ok)
	assert.Equal(t, "myapp42", cred.AppID)
	assert.Equal(t, "key-abcdef", cred.APIKey)
}

func TestResolveBase64TokenUnpadded(t *testing.T) {
	padded := encodeToken(t, `{"appId":"myapp42","apiKey":"key-abcdef"}`)
	unpadded := padded
	for len(unpadded) > 0 && unpadded[len(unpadded)-1] == '=' {
		unpadded = unpadded[:len(unpadded)-1]
	}
	cred, ok := Resolve(unpadded, "")
	require.True(t, ok)
	assert.Equal(t, "myapp42", cred.AppID)
}

func TestResolveRawJSONToken(t *testing.T) {
	cred, ok := Resolve(`{"appId":"rawapp","apiKey":"rawkey"}`, "")
	require.True(t, ok)
	assert.Equal(t, "rawapp", cred.AppID)
	assert.Equal(t, "rawkey", cred.APIKey)
}

func TestResolveLegacySecret(t *testing.T) {
	cred, ok := Resolve("sk_live_deadbeef", "legacyapp")
	require.True(t, ok)
	assert.Equal(t, "legacyapp", cred.AppID)
	assert.Equal(t, "sk_live_deadbeef", cred.APIKey)

	// The sk_ format still resolves without an out-of-band app id; the
	// caller decides what a blank app id means.
	cred, ok = Resolve("sk_live_deadbeef", "")
	require.True(t, ok)
	assert.Equal(t, "", cred.AppID)
}

func TestResolveRejectsUnknownFormats(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-token-at-all"},
		{"Base64OfNonJSON", encodeToken(t, "hello world")},
		{"Base64MissingFields", encodeToken(t, `{"appId":"only-app"}`)},
		{"RawJSONMissingFields", `{"apiKey":"only-key"}`},
		{"RawJSONWrongTypes", `{"appId":42,"apiKey":true}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, ok := Resolve(test.token, "fallbackapp")
			assert.False(t, ok)
		})
	}
}

func TestResolveBase64TriedBeforeRawJSON(t *testing.T) {
	// A token that is simultaneously valid base64 and would fail as raw
	// JSON must resolve via the base64 path.
	token := encodeToken(t, `{"appId":"b64app","apiKey":"b64key"}`)
	cred, ok := Resolve(token, "")
	require.True(t, ok)
	assert.Equal(t, "b64app", cred.AppID)
}
