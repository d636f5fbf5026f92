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

package provider

import (
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/service"
)

// ReconcileProviderInterface defines the interface for the reconciliation provider.
type ReconcileProviderInterface interface {
	GetReconciliationService() service.ReconciliationServiceInterface
}

// ReconcileProvider is the default implementation of the ReconcileProviderInterface.
type ReconcileProvider struct{}

// NewReconcileProvider creates a new instance of ReconcileProvider.
func NewReconcileProvider() ReconcileProviderInterface {

	return &ReconcileProvider{}
}

// GetReconciliationService returns the reconciliation service instance.
func (rp *ReconcileProvider) GetReconciliationService() service.ReconciliationServiceInterface {

	return service.GetReconciliationService()
}
