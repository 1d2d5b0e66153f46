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

package store

import (
	"fmt"
	"strings"

	model "github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/system/constants"
)

// buildWhereClause renders the filter as a WHERE clause with $n placeholders numbered from 1, in
// order of appearance.
func buildWhereClause(filter model.ConsentLogFilter) (string, []interface{}) {

	var conditions []string
	var args []interface{}
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if region := strings.ToUpper(strings.TrimSpace(filter.Region)); region != "" {
		add("region = $%d", region)
	}
	if filter.UserID > 0 {
		add("user_id = $%d", filter.UserID)
	}
	if filter.SessionID != "" {
		add("session_id = $%d", filter.SessionID)
	}
	if filter.StartDate != nil {
		add("consent_timestamp >= $%d", toMillis(*filter.StartDate))
	}
	if filter.EndDate != nil {
		add("consent_timestamp <= $%d", toMillis(*filter.EndDate))
	}
	if !filter.IncludeWithdrawn {
		conditions = append(conditions, "withdrawn_at IS NULL")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildOrderClause maps orderby and order through the allow-list. Unknown values fall back to the
// defaults. Ties are broken by id in the same direction so pages are stable.
func buildOrderClause(filter model.ConsentLogFilter) string {

	column, ok := constants.AllowedOrderBy[strings.ToLower(strings.TrimSpace(filter.OrderBy))]
	if !ok {
		column = constants.AllowedOrderBy[constants.DefaultOrderBy]
	}
	direction := strings.ToUpper(strings.TrimSpace(filter.Order))
	if direction != "ASC" && direction != "DESC" {
		direction = constants.DefaultOrder
	}
	if column == "id" {
		return fmt.Sprintf(" ORDER BY id %s", direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}
