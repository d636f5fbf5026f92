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
	"sync"

	"github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/service"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
)

var (
	monitor *service.HealthMonitor
	once    sync.Once
)

// HealthMonitorProviderInterface defines the interface for the health monitor provider.
type HealthMonitorProviderInterface interface {
	GetHealthMonitor() service.HealthMonitorInterface
}

// HealthMonitorProvider is the default implementation of the HealthMonitorProviderInterface.
type HealthMonitorProvider struct{}

// NewHealthMonitorProvider creates a new instance of HealthMonitorProvider.
func NewHealthMonitorProvider() HealthMonitorProviderInterface {

	return &HealthMonitorProvider{}
}

// GetHealthMonitor returns the process-wide health monitor instance.
// One monitor owns the background timer for the whole process.
func (p *HealthMonitorProvider) GetHealthMonitor() service.HealthMonitorInterface {

	once.Do(func() {
		cfg := config.GetIRSRuntime().Config
		monitor = service.NewHealthMonitor(storeclient.NewStoreClient(cfg.Store), cfg)
	})
	return monitor
}
