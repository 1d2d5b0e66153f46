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

package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/regional-consent-service/internal/blocking/catalogue"
	"github.com/wso2/regional-consent-service/internal/compliance/provider"
	"github.com/wso2/regional-consent-service/internal/region/geo"
	regionService "github.com/wso2/regional-consent-service/internal/region/service"
	signalsService "github.com/wso2/regional-consent-service/internal/signals/service"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/database/client"
	dbProvider "github.com/wso2/regional-consent-service/internal/system/database/provider"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

const germanIP = "81.2.69.142"

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func setupServer(t *testing.T) *http.ServeMux {
	t.Helper()

	cfg := config.Config{Consent: config.ConsentConfig{HashSalt: "salt", ExpiryDays: 30, BannerVersion: "v2"}}
	cfg.ApplyDefaults()
	config.OverrideRCSRuntime(cfg)

	db, err := dbProvider.OpenSQLite(filepath.Join(t.TempDir(), "consent.db"))
	require.NoError(t, err)
	require.NoError(t, client.NewDBClient(db, "sqlite").InitDatabase(context.Background()))
	dbProvider.SetTestDB(db, "sqlite")
	t.Cleanup(func() { _ = dbProvider.ClosePool() })

	overrides := geo.NewOverrideProvider(map[string]string{germanIP: "DE"}, nil)
	provider.SetComponents(&provider.Components{
		Resolver:   regionService.NewRegionResolver(regionService.DefaultPolicies(), []geo.CountryProvider{overrides}, time.Hour),
		Catalogue:  catalogue.New(catalogue.DefaultRules()),
		Translator: signalsService.NewSignalTranslator(signalsService.DefaultTranslatorConfig()),
	})
	t.Cleanup(func() { provider.SetComponents(nil) })

	h := NewConsentHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /consent", h.SaveConsent)
	mux.HandleFunc("GET /consent/status", h.GetConsentStatus)
	mux.HandleFunc("POST /consent/withdraw", h.WithdrawConsent)
	mux.HandleFunc("GET /consent/evaluate", h.EvaluateConsent)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", germanIP)
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestSaveConsent_ResolvesRegionAndReturnsSignals(t *testing.T) {
	mux := setupServer(t)

	rec, body := do(t, mux, http.MethodPost, "/consent", `{"categories":{"analytics":true,"marketing":false}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EU", body["region"])
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	signals := body["signals"].(map[string]interface{})["signals"].(map[string]interface{})
	gcm := signals["gcm"].(map[string]interface{})
	assert.Equal(t, "granted", gcm["analytics_storage"])
	assert.Equal(t, "denied", gcm["ad_storage"])

	rec, status := do(t, mux, http.MethodGet, "/consent/status?session_id="+sessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2", status["banner_version"])
	assert.NotEmpty(t, status["ip_hash"])
	assert.NotEqual(t, germanIP, status["ip_hash"])
}

func TestSaveConsent_RejectsInvalidBodies(t *testing.T) {
	mux := setupServer(t)

	rec, body := do(t, mux, http.MethodPost, "/consent", `{"categories":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "RCS-11004", body["code"])

	rec, body = do(t, mux, http.MethodPost, "/consent", `{"ip_hash":"forged","categories":{"analytics":true}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "RCS-11001", body["code"])

	rec, _ = do(t, mux, http.MethodPost, "/consent", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, source := range []string{"withdraw", "import", "unknown"} {
		rec, body = do(t, mux, http.MethodPost, "/consent", `{"source":"`+source+`","categories":{"analytics":true}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, source)
		assert.Equal(t, "RCS-11004", body["code"], source)
	}
}

func TestSaveConsent_AcceptsVisitorSources(t *testing.T) {
	mux := setupServer(t)

	rec, body := do(t, mux, http.MethodPost, "/consent", `{"session_id":"s-api","source":"api","categories":{"analytics":true}}`)
	require.Equal(t, http.StatusCreated, rec.Code, body)

	rec, status := do(t, mux, http.MethodGet, "/consent/status?session_id=s-api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api", status["source"])
}

func TestGetConsentStatus_Errors(t *testing.T) {
	mux := setupServer(t)

	rec, _ := do(t, mux, http.MethodGet, "/consent/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, mux, http.MethodGet, "/consent/status?session_id=unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RCS-11005", body["code"])
}

func TestWithdrawConsent(t *testing.T) {
	mux := setupServer(t)

	rec, _ := do(t, mux, http.MethodPost, "/consent", `{"session_id":"s1","categories":{"analytics":true,"marketing":true}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, mux, http.MethodPost, "/consent/withdraw", `{"session_id":"s1","categories":["marketing"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	consents := body["consents"].(map[string]interface{})
	assert.Equal(t, false, consents["marketing"])
	assert.Equal(t, true, consents["analytics"])

	rec, _ = do(t, mux, http.MethodPost, "/consent/withdraw", `{"session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, mux, http.MethodGet, "/consent/status?session_id=s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, mux, http.MethodPost, "/consent/withdraw", `{"session_id":"s1","categories":["analytics"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RCS-11005", body["code"])
}

func TestEvaluateConsent(t *testing.T) {
	mux := setupServer(t)

	rec, body := do(t, mux, http.MethodGet, "/consent/evaluate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	region := body["region"].(map[string]interface{})
	assert.Equal(t, "EU", region["region"])
	assert.Equal(t, "DE", region["country"])
	assert.Len(t, body["blocked_rule_ids"], 10)

	rec, body = do(t, mux, http.MethodGet, "/consent/evaluate?region=US-CA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "US-CA", body["region"].(map[string]interface{})["region"])
	assert.Empty(t, body["blocked_rule_ids"])
}

func TestEvaluateConsent_ReportsBlockedResources(t *testing.T) {
	mux := setupServer(t)

	query := url.Values{}
	query.Add("resource", `<script async src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>`)
	query.Add("resource", `<iframe src="https://www.youtube.com/embed/abc"></iframe>`)
	query.Add("resource", "https://cdn.example.com/app.js")
	rec, body := do(t, mux, http.MethodGet, "/consent/evaluate?"+query.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	blocked := body["blocked_resources"].([]interface{})
	require.Len(t, blocked, 2)
	assert.Equal(t, "google-analytics", blocked[0].(map[string]interface{})["rule_id"])
	assert.Equal(t, "youtube", blocked[1].(map[string]interface{})["rule_id"])

	rec, body = do(t, mux, http.MethodGet, "/consent/evaluate?region=DEFAULT&"+query.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["blocked_resources"])
}
