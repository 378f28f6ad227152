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

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetSet(t *testing.T) {
	store := NewStore[string](5 * time.Minute)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("k", "v1")
	val, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", val)

	// Overwrite replaces the entry whole.
	store.Set("k", "v2")
	val, ok = store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", val)
	assert.Equal(t, 1, store.Len())
}

func TestStoreExpiryIsHardCutoff(t *testing.T) {
	store := NewStore[int](5 * time.Minute)
	now := time.Now()
	store.SetClock(func() time.Time { return now })

	store.Set("k", 7)

	// One tick before the TTL boundary the entry is alive.
	now = now.Add(5*time.Minute - time.Nanosecond)
	val, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, val)

	// At the boundary it is absent, not a last-resort value.
	now = now.Add(time.Nanosecond)
	_, ok = store.Get("k")
	assert.False(t, ok)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore[string](time.Minute)
	store.Set("k", "v")
	store.Delete("k")
	_, ok := store.Get("k")
	assert.False(t, ok)
	// Deleting an absent key is a no-op.
	store.Delete("k")
}
