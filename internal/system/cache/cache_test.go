/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type entry struct {
	Region string
}

func TestCache_SetGetDelete(t *testing.T) {
	c := NewCache[entry](time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("k", entry{Region: "EU"})
	v, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, "EU", v.Region)
	assert.Equal(t, 1, c.Len())

	c.Delete("k")
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache[string](20 * time.Millisecond)
	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestCache_Flush(t *testing.T) {
	c := NewCache[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	assert.Equal(t, 0, c.Len())
}
