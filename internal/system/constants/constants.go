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

package constants

const ApiBasePath = "/api/v1"

const (
	DefaultRegion = "DEFAULT"
)

// Database dialects supported by the consent log store.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Pagination limits for consent log listing.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	MaxPage        = 1_000_000
	ExportPageSize = 1_000_000
	PruneBatchSize = 10_000
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

// AllowedOrderBy maps public sort keys to consent_logs columns.
var AllowedOrderBy = map[string]string{
	"id":             "id",
	"timestamp":      "consent_timestamp",
	"region":         "region",
	"source":         "source",
	"user_id":        "user_id",
	"session_id":     "session_id",
	"banner_version": "banner_version",
}

const (
	DefaultOrderBy = "timestamp"
	DefaultOrder   = "DESC"
)

// DefaultClientIPHeaders lists request headers consulted for the client address, highest priority first.
var DefaultClientIPHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
	"CloudFront-Viewer-Address",
}
