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

package model

import (
	"sort"
	"strings"
	"time"
)

// Category is a named purpose of data processing.
type Category string

const (
	CategoryNecessary  Category = "necessary"
	CategoryAnalytics  Category = "analytics"
	CategoryMarketing  Category = "marketing"
	CategoryFunctional Category = "functional"
)

// KnownCategories lists the built-in categories in display order.
var KnownCategories = []Category{CategoryNecessary, CategoryAnalytics, CategoryMarketing, CategoryFunctional}

// Known reports whether c is one of the built-in categories.
func (c Category) Known() bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Categories maps a category to whether it is granted. An absent key is denied, except for
// necessary which is always granted. Keys outside KnownCategories are kept as custom categories.
type Categories map[Category]bool

// Granted reports whether category is granted.
func (c Categories) Granted(category Category) bool {
	if category == CategoryNecessary {
		return true
	}
	return c[category]
}

// AnyOptionalGranted reports whether any category other than necessary is granted.
func (c Categories) AnyOptionalGranted() bool {
	for category, granted := range c {
		if granted && category != CategoryNecessary {
			return true
		}
	}
	return false
}

// Normalize returns a copy with trimmed lower-case keys and empty keys dropped.
func (c Categories) Normalize() Categories {
	out := make(Categories, len(c))
	for category, granted := range c {
		key := Category(strings.ToLower(strings.TrimSpace(string(category))))
		if key == "" {
			continue
		}
		out[key] = out[key] || granted
	}
	return out
}

// Without returns a copy with the given categories removed. Necessary is never removed, and is
// present in the result.
func (c Categories) Without(categories []Category) Categories {
	removed := make(map[Category]struct{}, len(categories))
	for _, category := range categories {
		removed[Category(strings.ToLower(strings.TrimSpace(string(category))))] = struct{}{}
	}
	out := make(Categories, len(c))
	for category, granted := range c {
		if _, drop := removed[category]; drop && category != CategoryNecessary {
			continue
		}
		out[category] = granted
	}
	out[CategoryNecessary] = true
	return out
}

// Keys returns the category keys in sorted order.
func (c Categories) Keys() []Category {
	keys := make([]Category, 0, len(c))
	for category := range c {
		keys = append(keys, category)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NecessaryOnly is the fail-closed consent state.
func NecessaryOnly() Categories {
	return Categories{CategoryNecessary: true}
}

// AllGranted grants every known category.
func AllGranted() Categories {
	out := make(Categories, len(KnownCategories))
	for _, category := range KnownCategories {
		out[category] = true
	}
	return out
}

// Source records where a consent decision came from.
type Source string

const (
	SourceBanner   Source = "banner"
	SourceAPI      Source = "api"
	SourceWithdraw Source = "withdraw"
	SourceImport   Source = "import"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceBanner, SourceAPI, SourceWithdraw, SourceImport:
		return true
	}
	return false
}

// ConsentRecord is one row of the consent log. A record with WithdrawnAt set is inactive.
type ConsentRecord struct {
	ID            int64                  `json:"id"`
	UserID        int64                  `json:"user_id,omitempty"`
	SessionID     string                 `json:"session_id"`
	Region        string                 `json:"region"`
	Categories    Categories             `json:"categories"`
	Purposes      map[string]interface{} `json:"purposes,omitempty"`
	BannerVersion string                 `json:"banner_version"`
	Source        Source                 `json:"source"`
	IPHash        string                 `json:"ip_hash"`
	UserAgentHash string                 `json:"user_agent_hash"`
	Timestamp     time.Time              `json:"timestamp"`
	ExpiryDate    *time.Time             `json:"expiry_date,omitempty"`
	WithdrawnAt   *time.Time             `json:"withdrawn_at,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Active reports whether the record has not been withdrawn.
func (r *ConsentRecord) Active() bool {
	return r.WithdrawnAt == nil
}

// ConsentPreferences is the input of a consent save.
type ConsentPreferences struct {
	UserID        int64                  `json:"user_id,omitempty"`
	SessionID     string                 `json:"session_id"`
	Region        string                 `json:"region"`
	Categories    Categories             `json:"categories"`
	Purposes      map[string]interface{} `json:"purposes,omitempty"`
	BannerVersion string                 `json:"banner_version,omitempty"`
	Source        Source                 `json:"source,omitempty"`
	IPHash        string                 `json:"ip_hash,omitempty"`
	UserAgentHash string                 `json:"user_agent_hash,omitempty"`
	ExpiryDate    *time.Time             `json:"expiry_date,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// ConsentLogFilter selects consent log rows. Zero values mean "no constraint", except Page and
// PerPage which are normalized to the first page of the default size.
type ConsentLogFilter struct {
	Region           string
	UserID           int64
	SessionID        string
	StartDate        *time.Time
	EndDate          *time.Time
	IncludeWithdrawn bool
	Page             int
	PerPage          int
	OrderBy          string
	Order            string
}

// CategoryCount holds per-category decision counts.
type CategoryCount struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Statistics aggregates consent decisions over a filtered record set.
type Statistics struct {
	TotalConsents   int                        `json:"total_consents"`
	TotalRejections int                        `json:"total_rejections"`
	AcceptanceRate  float64                    `json:"acceptance_rate"`
	ByRegion        map[string]int             `json:"by_region"`
	ByMode          map[string]int             `json:"by_mode"`
	ByCategory      map[Category]CategoryCount `json:"by_category"`
}
