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

// Record reasons. RollbackPending marks a Portal account that could not be
// deleted after a fatal Store-side failure; ManualReview marks an account
// state the decision table refused to mutate automatically.
const (
	ReasonRollbackPending = "rollback_pending"
	ReasonManualReview    = "manual_review"
)

// Record states.
const (
	StatePending  = "pending"
	StateResolved = "resolved"
)

// CompensationRecord is one entry in the compensating-action log. True
// distributed transactions are unavailable across the two systems, so
// failed cross-system sequences are recorded here with enough detail for
// an operator to reconcile by hand.
type CompensationRecord struct {
	RecordID  string `json:"record_id"`
	TraceID   string `json:"trace_id"`
	Email     string `json:"email"`
	PortalID  string `json:"portal_id,omitempty"`
	StoreID   int64  `json:"store_id,omitempty"`
	Reason    string `json:"reason"`
	Strategy  string `json:"strategy"`
	Detail    string `json:"detail"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
