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
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/regional-consent-service/internal/compliance/model"
	"github.com/wso2/regional-consent-service/internal/compliance/provider"
	consentModel "github.com/wso2/regional-consent-service/internal/consent/model"
	consentProvider "github.com/wso2/regional-consent-service/internal/consent/provider"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	"github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/utils"
)

const maxEvaluatedResources = 50

type ConsentHandler struct{}

func NewConsentHandler() *ConsentHandler {
	return &ConsentHandler{}
}

type saveConsentRequest struct {
	SessionID     string                  `json:"session_id"`
	UserID        int64                   `json:"user_id"`
	Region        string                  `json:"region"`
	Categories    consentModel.Categories `json:"categories"`
	Purposes      map[string]interface{}  `json:"purposes"`
	BannerVersion string                  `json:"banner_version"`
	Source        consentModel.Source     `json:"source"`
	Metadata      map[string]interface{}  `json:"metadata"`
}

type withdrawConsentRequest struct {
	SessionID  string                  `json:"session_id"`
	Categories []consentModel.Category `json:"categories"`
}

// SaveConsent handles POST /consent
func (h *ConsentHandler) SaveConsent(w http.ResponseWriter, r *http.Request) {

	var body saveConsentRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.HandleError(w, utils.BadRequest(utils.HandleDecodeError(err, "consent")))
		return
	}
	// withdraw and import records are only written by the service itself.
	if body.Source != "" && body.Source != consentModel.SourceBanner && body.Source != consentModel.SourceAPI {
		utils.HandleError(w, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.CONSENT_VALIDATION.Code,
			Message:     errors.CONSENT_VALIDATION.Message,
			Description: "source must be 'banner' or 'api'.",
		}, http.StatusBadRequest))
		return
	}

	orchestrator := provider.NewComplianceProvider().GetConsentOrchestrator()
	result, err := orchestrator.SavePreferences(r.Context(), model.SaveRequest{
		Preferences: consentModel.ConsentPreferences{
			UserID:        body.UserID,
			SessionID:     body.SessionID,
			Region:        body.Region,
			Categories:    body.Categories,
			Purposes:      body.Purposes,
			BannerVersion: body.BannerVersion,
			Source:        body.Source,
			Metadata:      body.Metadata,
		},
		ClientIP:       clientIP(r),
		UserAgent:      r.UserAgent(),
		RegionOverride: r.URL.Query().Get("region"),
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, result)
}

// GetConsentStatus handles GET /consent/status?session_id=
func (h *ConsentHandler) GetConsentStatus(w http.ResponseWriter, r *http.Request) {

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		utils.HandleError(w, utils.BadRequest("session_id query parameter is required."))
		return
	}

	service := consentProvider.NewConsentLogProvider().GetConsentLogService()
	current, err := service.CurrentStatus(r.Context(), sessionID, 0)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if current == nil {
		utils.HandleError(w, errors.NewClientError(errors.CONSENT_NOT_FOUND, http.StatusNotFound))
		return
	}
	utils.WriteJSON(w, http.StatusOK, current)
}

// WithdrawConsent handles POST /consent/withdraw
func (h *ConsentHandler) WithdrawConsent(w http.ResponseWriter, r *http.Request) {

	var body withdrawConsentRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.HandleError(w, utils.BadRequest(utils.HandleDecodeError(err, "consent withdrawal")))
		return
	}

	orchestrator := provider.NewComplianceProvider().GetConsentOrchestrator()
	result, err := orchestrator.Withdraw(r.Context(), model.WithdrawRequest{
		SessionID:  body.SessionID,
		Categories: body.Categories,
		ClientIP:   clientIP(r),
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// EvaluateConsent handles GET /consent/evaluate?session_id=&region=&resource=
func (h *ConsentHandler) EvaluateConsent(w http.ResponseWriter, r *http.Request) {

	query := r.URL.Query()
	if len(query["resource"]) > maxEvaluatedResources {
		utils.HandleError(w, utils.BadRequest(fmt.Sprintf("At most %d resource parameters are allowed.", maxEvaluatedResources)))
		return
	}
	orchestrator := provider.NewComplianceProvider().GetConsentOrchestrator()
	evaluation := orchestrator.Evaluate(r.Context(), clientIP(r), query.Get("session_id"), query.Get("region"),
		query["resource"]...)
	utils.WriteJSON(w, http.StatusOK, evaluation)
}

func clientIP(r *http.Request) string {
	headers := config.GetRCSRuntime().Config.Geo.TrustedHeaders
	if len(headers) == 0 {
		headers = constants.DefaultClientIPHeaders
	}
	return utils.ClientIP(r, headers)
}
