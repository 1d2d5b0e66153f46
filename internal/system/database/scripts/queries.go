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

package scripts

// Timestamps are stored as epoch milliseconds in both dialects.

var ConsentLogSchema = map[string]string{
	"postgres": `
CREATE TABLE IF NOT EXISTS consent_logs (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT,
	session_id VARCHAR(128) NOT NULL,
	region VARCHAR(16) NOT NULL,
	categories JSONB NOT NULL,
	purposes JSONB,
	banner_version VARCHAR(64) NOT NULL DEFAULT '',
	source VARCHAR(16) NOT NULL DEFAULT 'banner',
	ip_hash VARCHAR(128) NOT NULL DEFAULT '',
	user_agent_hash VARCHAR(128) NOT NULL DEFAULT '',
	consent_timestamp BIGINT NOT NULL,
	expiry_date BIGINT,
	withdrawn_at BIGINT,
	metadata JSONB
);
CREATE INDEX IF NOT EXISTS idx_consent_logs_session_active ON consent_logs (session_id, withdrawn_at);
CREATE INDEX IF NOT EXISTS idx_consent_logs_region ON consent_logs (region);
CREATE INDEX IF NOT EXISTS idx_consent_logs_timestamp ON consent_logs (consent_timestamp);
CREATE INDEX IF NOT EXISTS idx_consent_logs_user ON consent_logs (user_id)`,
	"sqlite": `
CREATE TABLE IF NOT EXISTS consent_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER,
	session_id TEXT NOT NULL,
	region TEXT NOT NULL,
	categories TEXT NOT NULL,
	purposes TEXT,
	banner_version TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT 'banner',
	ip_hash TEXT NOT NULL DEFAULT '',
	user_agent_hash TEXT NOT NULL DEFAULT '',
	consent_timestamp INTEGER NOT NULL,
	expiry_date INTEGER,
	withdrawn_at INTEGER,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_consent_logs_session_active ON consent_logs (session_id, withdrawn_at);
CREATE INDEX IF NOT EXISTS idx_consent_logs_region ON consent_logs (region);
CREATE INDEX IF NOT EXISTS idx_consent_logs_timestamp ON consent_logs (consent_timestamp);
CREATE INDEX IF NOT EXISTS idx_consent_logs_user ON consent_logs (user_id)`,
}

const consentLogColumns = `id, user_id, session_id, region, categories, purposes, banner_version, source, ip_hash,
	user_agent_hash, consent_timestamp, expiry_date, withdrawn_at, metadata`

// ConsentLogColumns is the select list shared by all consent log reads.
const ConsentLogColumns = consentLogColumns

var InsertConsentLog = map[string]string{
	"postgres": `INSERT INTO consent_logs (user_id, session_id, region, categories, purposes, banner_version, source,
	ip_hash, user_agent_hash, consent_timestamp, expiry_date, withdrawn_at, metadata)
	VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13::jsonb) RETURNING id`,
	"sqlite": `INSERT INTO consent_logs (user_id, session_id, region, categories, purposes, banner_version, source,
	ip_hash, user_agent_hash, consent_timestamp, expiry_date, withdrawn_at, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
}

var SelectCurrentConsent = map[string]string{
	"postgres": `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE session_id = $1 AND withdrawn_at IS NULL
	ORDER BY consent_timestamp DESC, id DESC LIMIT 1`,
	"sqlite": `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE session_id = $1 AND withdrawn_at IS NULL
	ORDER BY consent_timestamp DESC, id DESC LIMIT 1`,
}

var SelectConsentHistory = map[string]string{
	"postgres": `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE session_id = $1 ORDER BY consent_timestamp ASC, id ASC`,
	"sqlite":   `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE session_id = $1 ORDER BY consent_timestamp ASC, id ASC`,
}

var SelectConsentByID = map[string]string{
	"postgres": `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE id = $1`,
	"sqlite":   `SELECT ` + consentLogColumns + ` FROM consent_logs WHERE id = $1`,
}

var WithdrawActiveConsents = map[string]string{
	"postgres": `UPDATE consent_logs SET withdrawn_at = $1 WHERE session_id = $2 AND withdrawn_at IS NULL`,
	"sqlite":   `UPDATE consent_logs SET withdrawn_at = $1 WHERE session_id = $2 AND withdrawn_at IS NULL`,
}

var WithdrawConsentByID = map[string]string{
	"postgres": `UPDATE consent_logs SET withdrawn_at = $1 WHERE id = $2 AND withdrawn_at IS NULL`,
	"sqlite":   `UPDATE consent_logs SET withdrawn_at = $1 WHERE id = $2 AND withdrawn_at IS NULL`,
}

var DeleteConsentByID = map[string]string{
	"postgres": `DELETE FROM consent_logs WHERE id = $1`,
	"sqlite":   `DELETE FROM consent_logs WHERE id = $1`,
}

var DeleteConsentsBefore = map[string]string{
	"postgres": `DELETE FROM consent_logs WHERE consent_timestamp < $1`,
	"sqlite":   `DELETE FROM consent_logs WHERE consent_timestamp < $1`,
}

var DeleteConsentsBeforeThroughID = map[string]string{
	"postgres": `DELETE FROM consent_logs WHERE consent_timestamp < $1 AND id <= $2`,
	"sqlite":   `DELETE FROM consent_logs WHERE consent_timestamp < $1 AND id <= $2`,
}

var SelectConsentLogs = map[string]string{
	"postgres": `SELECT ` + consentLogColumns + ` FROM consent_logs`,
	"sqlite":   `SELECT ` + consentLogColumns + ` FROM consent_logs`,
}

var CountConsentLogs = map[string]string{
	"postgres": `SELECT COUNT(*) AS total FROM consent_logs`,
	"sqlite":   `SELECT COUNT(*) AS total FROM consent_logs`,
}

// LockSession only exists for postgres; SQLite serializes writers with BEGIN IMMEDIATE.
var LockSession = map[string]string{
	"postgres": `SELECT pg_advisory_xact_lock($1)`,
}
