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

package services

import (
	"fmt"
	"net/http"

	complianceHandler "github.com/wso2/regional-consent-service/internal/compliance/handler"
	"github.com/wso2/regional-consent-service/internal/consent/handler"
)

// ConsentService registers the visitor and admin consent routes.
type ConsentService struct {
	consentHandler *complianceHandler.ConsentHandler
	logHandler     *handler.ConsentLogHandler
}

func NewConsentService(mux *http.ServeMux, apiBasePath string) *ConsentService {
	instance := &ConsentService{
		consentHandler: complianceHandler.NewConsentHandler(),
		logHandler:     handler.NewConsentLogHandler(),
	}
	instance.RegisterRoutes(mux, apiBasePath)
	return instance
}

func (s *ConsentService) RegisterRoutes(mux *http.ServeMux, apiBasePath string) {
	mux.HandleFunc(fmt.Sprintf("POST %s/consent", apiBasePath), s.consentHandler.SaveConsent)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/status", apiBasePath), s.consentHandler.GetConsentStatus)
	mux.HandleFunc(fmt.Sprintf("POST %s/consent/withdraw", apiBasePath), s.consentHandler.WithdrawConsent)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/evaluate", apiBasePath), s.consentHandler.EvaluateConsent)

	mux.HandleFunc(fmt.Sprintf("GET %s/consent/logs", apiBasePath), s.logHandler.GetConsentLogs)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/logs/count", apiBasePath), s.logHandler.CountConsentLogs)
	mux.HandleFunc(fmt.Sprintf("DELETE %s/consent/logs/{id}", apiBasePath), s.logHandler.DeleteConsentLog)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/statistics", apiBasePath), s.logHandler.GetStatistics)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/export", apiBasePath), s.logHandler.ExportConsentLogs)
	mux.HandleFunc(fmt.Sprintf("GET %s/consent/history", apiBasePath), s.logHandler.GetConsentHistory)
}
