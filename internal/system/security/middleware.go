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

package security

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

// AuthnWithAdminCredentials guards the operator endpoints with the admin
// credentials from the deployment configuration.
func AuthnWithAdminCredentials(r *http.Request) error {

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Basic ") {
		return errors.NewClientError(errors.ErrorMessage{
			Code:        errors.UNAUTHORIZED.Code,
			Message:     errors.UNAUTHORIZED.Message,
			Description: "Missing or invalid Authorization header",
		}, http.StatusUnauthorized)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Basic "))

	isValidAdmin, err := validateAdminCredentials(token)
	if err != nil || !isValidAdmin {
		return errors.NewClientError(errors.ErrorMessage{
			Code:        errors.UNAUTHORIZED.Code,
			Message:     errors.UNAUTHORIZED.Message,
			Description: "Missing or invalid Authorization header",
		}, http.StatusUnauthorized)
	}

	return nil
}

func validateAdminCredentials(token string) (bool, error) {

	adminConfig := config.GetIRSRuntime().Config.Admin
	username := strings.TrimSpace(adminConfig.Username)
	password := strings.TrimSpace(adminConfig.Password)
	if username == "" || password == "" || token == "" {
		return false, nil
	}

	creds := username + ":" + password
	expected := base64.StdEncoding.EncodeToString([]byte(creds))

	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
		log.GetLogger().Debug("Admin credentials validated successfully.")
		return true, nil
	}

	return false, nil
}
