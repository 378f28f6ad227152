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

package proxy

type (
	OutcomeKind string

	// Outcome is the closed contract between resolution and the HTTP
	// layer; nothing downstream re-inspects raw upstream status codes to
	// learn what happened.
	Outcome struct {
		Kind        OutcomeKind
		URL         string // working URL (success) or the URL as requested
		RequestedID string
		Reason      string // transport detail for unavailable/internal
	}
)

const (
	// A working URL was found; stream or forward it.
	OutcomeSuccess OutcomeKind = "success"
	// Every signal agrees the file is permanently gone. The only kind
	// allowed to produce the cacheable 410.
	OutcomeDeleted OutcomeKind = "deleted"
	// The upstream could not be reached on the last-resort fetch; the file
	// likely still exists, so the caller should retry.
	OutcomeUnavailable OutcomeKind = "unavailable"
	// Every strategy ran to completion without success and without a
	// deletion signal.
	OutcomeNotFound OutcomeKind = "not_found"
)

func successOutcome(url string) Outcome {
	return Outcome{Kind: OutcomeSuccess, URL: url}
}

func deletedOutcome(url, requestedID string) Outcome {
	return Outcome{Kind: OutcomeDeleted, URL: url, RequestedID: requestedID}
}

func unavailableOutcome(url, requestedID, reason string) Outcome {
	return Outcome{Kind: OutcomeUnavailable, URL: url, RequestedID: requestedID, Reason: reason}
}

func notFoundOutcome(url, requestedID string) Outcome {
	return Outcome{Kind: OutcomeNotFound, URL: url, RequestedID: requestedID}
}

// apiResp is the JSON envelope for non-passthrough outcomes. Field names
// are stable so UI callers can branch on retry instead of status codes.
type apiResp struct {
	Error   string `json:"error"`
	URL     string `json:"url"`
	FileID  string `json:"fileId,omitempty"`
	Retry   bool   `json:"retry,omitempty"`
	Details string `json:"details,omitempty"`
}
