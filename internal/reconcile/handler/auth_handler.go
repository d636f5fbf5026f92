/*
 * Copyright (c) 2025-2026, BDA Portal.
 *
 * BDA Portal licenses this file to you under the Apache License,
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
	"encoding/json"
	"net/http"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/provider"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/utils"
)

type AuthHandler struct {
	provider provider.ReconcileProviderInterface
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		provider: provider.NewReconcileProvider(),
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {

	var req model.SignupRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeDecodeError(w, err, "signup")
		return
	}
	if clientErr := validateCredentialFields(req.Email, req.Password); clientErr != nil {
		utils.WriteErrorResponse(w, clientErr)
		return
	}

	outcome := h.provider.GetReconciliationService().Signup(r.Context(), req)
	utils.WriteJSONResponse(w, outcomeStatus(outcome.Success), outcome)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {

	var req model.LoginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeDecodeError(w, err, "login")
		return
	}
	if clientErr := validateCredentialFields(req.Email, req.Password); clientErr != nil {
		utils.WriteErrorResponse(w, clientErr)
		return
	}

	outcome := h.provider.GetReconciliationService().Login(r.Context(), req)
	if !outcome.Success {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, outcome)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, outcome)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {

	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err, "logout")
		return
	}

	if err := h.provider.GetReconciliationService().Logout(r.Context(), req); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func validateCredentialFields(email, password string) *errors2.ClientError {
	if email == "" {
		return errors2.NewClientError(errors2.EMAIL_REQUIRED, http.StatusBadRequest)
	}
	if password == "" {
		return errors2.NewClientError(errors2.PASSWORD_REQUIRED, http.StatusBadRequest)
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error, resourceName string) {
	utils.WriteErrorResponse(w, errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.BAD_REQUEST.Code,
		Message:     errors2.BAD_REQUEST.Message,
		Description: utils.HandleDecodeError(err, resourceName),
	}, http.StatusBadRequest))
}

// A failed reconciliation is still a well-formed answer; only manual
// review style failures map to 409 to flag the stuck state.
func outcomeStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusConflict
}
