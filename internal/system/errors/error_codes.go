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

package errors

const errorPrefix = "RCS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	ADD_CONSENT_LOG = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while saving consent record.",
	}

	FETCH_CONSENT_LOGS = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while fetching consent record(s).",
	}

	WITHDRAW_CONSENT = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while withdrawing consent.",
	}

	DELETE_CONSENT_LOG = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while deleting consent record(s).",
	}

	EXPORT_CONSENT_LOGS = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while exporting consent records.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Advisory lock acquisition failed",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while un-marshalling JSON.",
	}

	ARCHIVE_CONSENT_LOGS = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while archiving consent records.",
	}

	// Client error codes
	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Unauthorized",
		Description: "Authorization failure. Authorization information was invalid or missing from your request.",
	}

	FORBIDDEN = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Forbidden",
		Description: "You do not have permission to access this resource.",
	}

	CONSENT_VALIDATION = ErrorMessage{
		Code:    errorPrefix + "11004",
		Message: "Consent record validation failed.",
	}

	CONSENT_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11005",
		Message:     "Consent not found.",
		Description: "No active consent record found for the given session_id.",
	}

	INVALID_EXPORT_FORMAT = ErrorMessage{
		Code:        errorPrefix + "11006",
		Message:     "Invalid export format.",
		Description: "Allowed export formats are csv and json.",
	}

	INVALID_FILTER = ErrorMessage{
		Code:    errorPrefix + "11007",
		Message: "Invalid consent log filter.",
	}

	CONSENT_LOG_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11008",
		Message:     "Consent record not found.",
		Description: "No consent record found for the given id.",
	}

	INVALID_RETENTION = ErrorMessage{
		Code:        errorPrefix + "11009",
		Message:     "Invalid retention period.",
		Description: "Retention period must be a positive number of days.",
	}
)
