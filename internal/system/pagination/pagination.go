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
	"fmt"
	"net/http"
	"strconv"

	"github.com/wso2/regional-consent-service/internal/system/constants"
)

// Page is a 1-based page request with a bounded page size.
type Page struct {
	Page    int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pagination describes a page of results in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Normalize clamps page and per_page. A non-positive page becomes 1 and a page above the maximum is
// capped, so the offset cannot overflow. A non-positive per_page becomes the default and a per_page
// above the maximum is capped.
func Normalize(page, perPage int) Page {

	if page < 1 {
		page = 1
	}
	if page > constants.MaxPage {
		page = constants.MaxPage
	}
	if perPage <= 0 {
		perPage = constants.DefaultPerPage
	}
	if perPage > constants.MaxPerPage {
		perPage = constants.MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

// ParsePage reads page and per_page from the query string.
func ParsePage(r *http.Request) (Page, error) {

	page, err := parsePositive(r, "page")
	if err != nil {
		return Page{}, err
	}
	perPage, err := parsePositive(r, "per_page")
	if err != nil {
		return Page{}, err
	}
	return Normalize(page, perPage), nil
}

// NewPagination builds the response block for a page and a total row count.
func NewPagination(p Page, total int) Pagination {

	totalPages := 0
	if p.PerPage > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePositive(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}
