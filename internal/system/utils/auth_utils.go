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

package utils

import (
	"net/http"
	"strings"

	"github.com/wso2/regional-consent-service/internal/system/authn"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// AuthorizeAdmin authenticates the bearer token of the request and checks it carries the admin scope.
func AuthorizeAdmin(r *http.Request) error {

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return errors.NewClientError(errors.ErrorMessage{
			Code:        errors.UN_AUTHORIZED.Code,
			Message:     errors.UN_AUTHORIZED.Message,
			Description: "Missing or invalid Authorization header",
		}, http.StatusUnauthorized)
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	authConfig := config.GetRCSRuntime().Config.Auth
	claims, err := authn.ValidateToken(token, authConfig)
	if err != nil {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorType: log.InitiatorTypeAdmin,
			TargetType:    log.TargetTypeConsentLog,
			ActionID:      log.ActionAuthenticationFailure,
			Data:          map[string]interface{}{"path": r.URL.Path},
		})
		return err
	}

	if !authn.HasScope(claims, authConfig.AdminScope) {
		return errors.NewClientError(errors.ErrorMessage{
			Code:        errors.FORBIDDEN.Code,
			Message:     errors.FORBIDDEN.Message,
			Description: "Do not have permission to perform this operation",
		}, http.StatusForbidden)
	}
	return nil
}
