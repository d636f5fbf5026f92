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

package managers

import (
	"net/http"
	"strings"

	compensationhandler "github.com/bda-portal/identity-reconciliation-service/internal/compensation/handler"
	healthhandler "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/handler"
	reconcilehandler "github.com/bda-portal/identity-reconciliation-service/internal/reconcile/handler"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/security"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/utils"
)

type ServiceManagerInterface interface {
	RegisterServices(apiBasePath string) error
}

type ServiceManager struct {
	mux *http.ServeMux
}

// NewServiceManager creates a new instance of ServiceManager.
func NewServiceManager(mux *http.ServeMux) ServiceManagerInterface {

	return &ServiceManager{
		mux: mux,
	}
}

func (sm *ServiceManager) RegisterServices(apiBasePath string) error {

	authHandler := reconcilehandler.NewAuthHandler()
	healthHandler := healthhandler.NewHealthHandler()
	compensationHandler := compensationhandler.NewCompensationHandler()

	// Single dispatcher for all services under the base path.
	sm.mux.HandleFunc(apiBasePath+"/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, apiBasePath), "/")

		switch {
		case path == "/auth/signup" && r.Method == http.MethodPost:
			authHandler.Signup(w, r)
		case path == "/auth/login" && r.Method == http.MethodPost:
			authHandler.Login(w, r)
		case path == "/auth/logout" && r.Method == http.MethodPost:
			authHandler.Logout(w, r)

		case path == "/health/liveness" && r.Method == http.MethodGet:
			healthHandler.Liveness(w, r)
		case path == "/health/status" && r.Method == http.MethodGet:
			healthHandler.Status(w, r)
		case path == "/health/check" && r.Method == http.MethodPost:
			healthHandler.ForceCheck(w, r)

		case path == "/reconciliations/pending" && r.Method == http.MethodGet:
			if err := security.AuthnWithAdminCredentials(r); err != nil {
				utils.HandleError(w, err)
				return
			}
			compensationHandler.ListPending(w, r)
		case strings.HasPrefix(path, "/reconciliations/") && strings.HasSuffix(path, "/resolve") && r.Method == http.MethodPost:
			if err := security.AuthnWithAdminCredentials(r); err != nil {
				utils.HandleError(w, err)
				return
			}
			r.URL.Path = path
			compensationHandler.Resolve(w, r)

		default:
			http.NotFound(w, r)
		}
	})
	return nil
}
