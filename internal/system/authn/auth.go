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

package authn

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wso2/regional-consent-service/internal/system/config"
	errors2 "github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// ValidateToken verifies an HS256 signed admin token against the configured secret, audience and
// issuer, and returns its claims.
func ValidateToken(token string, authConfig config.AuthConfig) (jwt.MapClaims, error) {

	logger := log.GetLogger()
	if authConfig.JWTSecret == "" {
		logger.Warn("Admin token received but no JWT secret is configured.")
		return nil, unauthorizedError()
	}
	if strings.Count(token, ".") != 2 {
		logger.Debug("Expecting a JWT token but received an opaque token.")
		return nil, unauthorizedError()
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if authConfig.Audience != "" {
		options = append(options, jwt.WithAudience(authConfig.Audience))
	}
	if authConfig.Issuer != "" {
		options = append(options, jwt.WithIssuer(authConfig.Issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(authConfig.JWTSecret), nil
	}, options...)
	if err != nil {
		logger.Debug("Admin token validation failed.", log.Error(err))
		return nil, unauthorizedError()
	}
	return claims, nil
}

// HasScope reports whether the space separated scope claim contains the required scope.
func HasScope(claims jwt.MapClaims, required string) bool {

	if required == "" {
		return true
	}
	raw, ok := claims["scope"].(string)
	if !ok {
		return false
	}
	for _, scope := range strings.Fields(raw) {
		if scope == required {
			return true
		}
	}
	return false
}

// IssueToken creates an HS256 admin token. Used by operators and tests to mint credentials.
func IssueToken(authConfig config.AuthConfig, subject string, scopes []string, ttl time.Duration) (string, error) {

	if authConfig.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": strings.Join(scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if authConfig.Audience != "" {
		claims["aud"] = authConfig.Audience
	}
	if authConfig.Issuer != "" {
		claims["iss"] = authConfig.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(authConfig.JWTSecret))
}

func unauthorizedError() error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.UN_AUTHORIZED.Code,
		Message:     errors2.UN_AUTHORIZED.Message,
		Description: errors2.UN_AUTHORIZED.Description,
	}, http.StatusUnauthorized)
}
