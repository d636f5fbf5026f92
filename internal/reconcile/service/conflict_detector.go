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

package service

import (
	"strings"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
)

// DetectConflicts compares the two snapshots and returns every field on
// which they materially disagree. Deterministic and side-effect-free. A
// field only conflicts when both values are non-empty after trimming and
// differ; missing data never triggers a conflict.
func DetectConflicts(portal, store *model.AccountSnapshot) []model.ConflictRecord {

	if portal == nil || store == nil {
		return nil
	}

	var conflicts []model.ConflictRecord

	portalName := normalizedFullName(portal.FirstName, portal.LastName)
	storeName := normalizedFullName(store.FirstName, store.LastName)
	if portalName != "" && storeName != "" && portalName != storeName {
		conflicts = append(conflicts, model.ConflictRecord{
			Field:       "name",
			PortalValue: portalName,
			StoreValue:  storeName,
		})
	}

	return conflicts
}

// normalizedFullName joins and trims the name parts the way both systems
// render a display name.
func normalizedFullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
