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

package model

// Overall status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// StoreHealth is the Store side of a snapshot.
type StoreHealth struct {
	Available      bool   `json:"available"`
	Skipped        bool   `json:"skipped,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty"`
	LastCheckedAt  string `json:"last_checked_at"`
	Error          string `json:"error,omitempty"`
}

// PortalHealth is the Portal side of a snapshot. The engine runs next to
// the Portal and cannot observe it being down, so Available is always
// reported true. Asymmetric, known.
type PortalHealth struct {
	Available      bool  `json:"available"`
	ResponseTimeMs int64 `json:"response_time_ms"`
}

// HealthSnapshot is the only long-lived shared state in the engine.
// Readers always see a whole snapshot; updates replace it atomically.
type HealthSnapshot struct {
	Status string       `json:"status"`
	Store  StoreHealth  `json:"store"`
	Portal PortalHealth `json:"portal"`
}
