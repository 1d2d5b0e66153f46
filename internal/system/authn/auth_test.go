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
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

var authConfig = config.AuthConfig{
	JWTSecret:  "test-secret",
	Audience:   "consent-admin",
	Issuer:     "rcs-test",
	AdminScope: "consent:admin",
}

func TestValidateToken_RoundTrip(t *testing.T) {
	token, err := IssueToken(authConfig, "ops", []string{"consent:admin", "openid"}, time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, authConfig)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims["sub"])
	assert.True(t, HasScope(claims, "consent:admin"))
	assert.False(t, HasScope(claims, "consent:write"))
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, err := IssueToken(authConfig, "ops", []string{"consent:admin"}, -time.Minute)
	require.NoError(t, err)

	otherSecret := authConfig
	otherSecret.JWTSecret = "another-secret"
	forged, err := IssueToken(otherSecret, "ops", []string{"consent:admin"}, time.Minute)
	require.NoError(t, err)

	wrongAudience := authConfig
	wrongAudience.Audience = "someone-else"
	misdirected, err := IssueToken(wrongAudience, "ops", []string{"consent:admin"}, time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"forged":    forged,
		"audience":  misdirected,
		"unsigned":  unsigned,
		"opaque":    "abc123",
		"malformed": "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(token, authConfig)
			require.Error(t, err)
			clientErr, ok := err.(*errors.ClientError)
			require.True(t, ok)
			assert.Equal(t, 401, clientErr.StatusCode)
		})
	}
}

func TestValidateToken_NoSecretConfigured(t *testing.T) {
	_, err := ValidateToken("a.b.c", config.AuthConfig{})
	assert.Error(t, err)

	_, err = IssueToken(config.AuthConfig{}, "ops", nil, time.Minute)
	assert.Error(t, err)
}
