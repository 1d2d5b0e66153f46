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
	"strconv"
	"strings"
	"time"

	"github.com/wso2/regional-consent-service/internal/consent/model"
	"github.com/wso2/regional-consent-service/internal/consent/provider"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	"github.com/wso2/regional-consent-service/internal/system/errors"
	"github.com/wso2/regional-consent-service/internal/system/pagination"
	"github.com/wso2/regional-consent-service/internal/system/utils"
)

type ConsentLogHandler struct{}

func NewConsentLogHandler() *ConsentLogHandler {
	return &ConsentLogHandler{}
}

type consentLogsResponse struct {
	Logs       []model.ConsentRecord `json:"logs"`
	Pagination pagination.Pagination `json:"pagination"`
}

// GetConsentLogs handles GET /consent/logs
func (h *ConsentLogHandler) GetConsentLogs(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewConsentLogProvider().GetConsentLogService()
	logs, err := service.List(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	total, err := service.Count(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if logs == nil {
		logs = []model.ConsentRecord{}
	}
	page := pagination.Normalize(filter.Page, filter.PerPage)
	utils.WriteJSON(w, http.StatusOK, consentLogsResponse{
		Logs:       logs,
		Pagination: pagination.NewPagination(page, total),
	})
}

// CountConsentLogs handles GET /consent/logs/count
func (h *ConsentLogHandler) CountConsentLogs(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewConsentLogProvider().GetConsentLogService()
	total, err := service.Count(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"count": total})
}

// GetStatistics handles GET /consent/statistics
func (h *ConsentLogHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	service := provider.NewConsentLogProvider().GetConsentLogService()
	stats, err := service.RegionStatistics(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// ExportConsentLogs handles GET /consent/export?format=csv|json
func (h *ConsentLogHandler) ExportConsentLogs(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = constants.ExportFormatCSV
	}

	service := provider.NewConsentLogProvider().GetConsentLogService()
	out, err := service.Export(r.Context(), format, filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == constants.ExportFormatJSON {
		contentType = "application/json"
	}
	filename := fmt.Sprintf("consent-logs-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// DeleteConsentLog handles DELETE /consent/logs/{id}
func (h *ConsentLogHandler) DeleteConsentLog(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.HandleError(w, utils.BadRequest("Consent record id must be a positive integer."))
		return
	}

	service := provider.NewConsentLogProvider().GetConsentLogService()
	if err := service.Delete(r.Context(), id); err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetConsentHistory handles GET /consent/history?session_id=
func (h *ConsentLogHandler) GetConsentHistory(w http.ResponseWriter, r *http.Request) {

	if err := utils.AuthorizeAdmin(r); err != nil {
		utils.HandleError(w, err)
		return
	}
	service := provider.NewConsentLogProvider().GetConsentLogService()
	history, err := service.History(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if history == nil {
		history = []model.ConsentRecord{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

// parseFilter reads the consent log filter from the query string. Dates accept RFC 3339 or
// YYYY-MM-DD; a bare end date covers the whole day.
func parseFilter(r *http.Request) (model.ConsentLogFilter, error) {

	query := r.URL.Query()
	filter := model.ConsentLogFilter{
		Region:    strings.ToUpper(strings.TrimSpace(query.Get("region"))),
		SessionID: strings.TrimSpace(query.Get("session_id")),
		OrderBy:   query.Get("orderby"),
		Order:     query.Get("order"),
	}

	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return filter, filterError("user_id must be a positive integer.")
		}
		filter.UserID = userID
	}
	if raw := query.Get("include_withdrawn"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, filterError("include_withdrawn must be true or false.")
		}
		filter.IncludeWithdrawn = include
	}
	if raw := query.Get("start_date"); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			return filter, filterError("start_date must be an RFC 3339 timestamp or YYYY-MM-DD.")
		}
		filter.StartDate = &start
	}
	if raw := query.Get("end_date"); raw != "" {
		end, dateOnly, err := parseDate(raw)
		if err != nil {
			return filter, filterError("end_date must be an RFC 3339 timestamp or YYYY-MM-DD.")
		}
		if dateOnly {
			end = end.Add(24*time.Hour - time.Millisecond)
		}
		filter.EndDate = &end
	}

	page, err := pagination.ParsePage(r)
	if err != nil {
		return filter, filterError(err.Error())
	}
	filter.Page = page.Page
	filter.PerPage = page.PerPage
	return filter, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	return t, true, err
}

func filterError(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.INVALID_FILTER.Code,
		Message:     errors.INVALID_FILTER.Message,
		Description: description,
	}, http.StatusBadRequest)
}
