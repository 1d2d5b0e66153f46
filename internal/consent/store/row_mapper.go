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
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	model "github.com/wso2/regional-consent-service/internal/consent/model"
)

// rowToRecord maps a consent_logs row, as returned by the database client, to a record.
func rowToRecord(row map[string]interface{}) (model.ConsentRecord, error) {

	var record model.ConsentRecord
	var err error

	if record.ID, err = toInt64(row["id"]); err != nil {
		return record, errors.Wrap(err, "id")
	}
	if row["user_id"] != nil {
		if record.UserID, err = toInt64(row["user_id"]); err != nil {
			return record, errors.Wrap(err, "user_id")
		}
	}
	record.SessionID = toString(row["session_id"])
	record.Region = toString(row["region"])
	record.BannerVersion = toString(row["banner_version"])
	record.Source = model.Source(toString(row["source"]))
	record.IPHash = toString(row["ip_hash"])
	record.UserAgentHash = toString(row["user_agent_hash"])

	if err = unmarshalColumn(row["categories"], &record.Categories); err != nil {
		return record, errors.Wrap(err, "categories")
	}
	if err = unmarshalColumn(row["purposes"], &record.Purposes); err != nil {
		return record, errors.Wrap(err, "purposes")
	}
	if err = unmarshalColumn(row["metadata"], &record.Metadata); err != nil {
		return record, errors.Wrap(err, "metadata")
	}

	timestamp, err := toInt64(row["consent_timestamp"])
	if err != nil {
		return record, errors.Wrap(err, "consent_timestamp")
	}
	record.Timestamp = fromMillis(timestamp)
	if record.ExpiryDate, err = toTimePtr(row["expiry_date"]); err != nil {
		return record, errors.Wrap(err, "expiry_date")
	}
	if record.WithdrawnAt, err = toTimePtr(row["withdrawn_at"]); err != nil {
		return record, errors.Wrap(err, "withdrawn_at")
	}
	return record, nil
}

func unmarshalColumn(value interface{}, target interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unexpected JSON column type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// marshalNullable encodes v as JSON text, or nil for an empty map so the column stays NULL.
func marshalNullable(v map[string]interface{}) (interface{}, error) {
	if len(v) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("unexpected integer column type %T", value)
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	}
	return fmt.Sprint(value)
}

func toTimePtr(value interface{}) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	ms, err := toInt64(value)
	if err != nil {
		return nil, err
	}
	t := fromMillis(ms)
	return &t, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullableMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullableUserID(userID int64) interface{} {
	if userID == 0 {
		return nil
	}
	return userID
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
