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

package pagination

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/system/constants"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PerPage: 20}, Normalize(0, 0))
	assert.Equal(t, Page{Page: 3, PerPage: 100}, Normalize(3, 500))
	assert.Equal(t, Page{Page: 1, PerPage: 10}, Normalize(-4, 10))

	huge := Normalize(math.MaxInt, 100)
	assert.Equal(t, constants.MaxPage, huge.Page)
	assert.Positive(t, huge.Offset())
	assert.Equal(t, 20, Page{Page: 3, PerPage: 10}.Offset())
}

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest("GET", "/consent/logs?page=2&per_page=10", nil)
	p, err := ParsePage(r)
	require.NoError(t, err)
	assert.Equal(t, Page{Page: 2, PerPage: 10}, p)

	r = httptest.NewRequest("GET", "/consent/logs?per_page=abc", nil)
	_, err = ParsePage(r)
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(Page{Page: 3, PerPage: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.Total)

	assert.Equal(t, 0, NewPagination(Page{Page: 1, PerPage: 10}, 0).TotalPages)
}
