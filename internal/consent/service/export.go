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

package service

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	model "github.com/wso2/regional-consent-service/internal/consent/model"
)

// CSVHeader is the fixed column order of CSV exports.
var CSVHeader = []string{
	"ID", "User ID", "Session ID", "Region", "Categories", "Purposes", "Banner Version", "Timestamp",
	"Expiry Date", "Source", "IP Hash", "User Agent Hash", "Withdrawn At", "Metadata",
}

func encodeCSV(records []model.ConsentRecord) ([]byte, error) {

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, record := range records {
		categories, err := json.Marshal(record.Categories)
		if err != nil {
			return nil, err
		}
		purposes, err := jsonCell(record.Purposes)
		if err != nil {
			return nil, err
		}
		metadata, err := jsonCell(record.Metadata)
		if err != nil {
			return nil, err
		}
		userID := ""
		if record.UserID != 0 {
			userID = strconv.FormatInt(record.UserID, 10)
		}
		if err := writer.Write([]string{
			strconv.FormatInt(record.ID, 10),
			userID,
			record.SessionID,
			record.Region,
			string(categories),
			purposes,
			record.BannerVersion,
			record.Timestamp.UTC().Format(time.RFC3339),
			timeCell(record.ExpiryDate),
			string(record.Source),
			record.IPHash,
			record.UserAgentHash,
			timeCell(record.WithdrawnAt),
			metadata,
		}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func encodeJSON(records []model.ConsentRecord) ([]byte, error) {
	if records == nil {
		records = []model.ConsentRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}

func jsonCell(v map[string]interface{}) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(v)
	return string(raw), err
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
