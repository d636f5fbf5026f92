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
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
)

// SelectStrategy is the pure decision function mapping an account status
// and requested access mode to exactly one reconciliation strategy. Any
// input the table does not cover, including a probe that left either
// system's state unknown, resolves to manual review. The engine never
// guesses with missing information.
func SelectStrategy(status model.AccountStatus, mode model.AccessMode) model.Strategy {

	if !status.Certain() {
		return model.StrategyManualReview
	}

	switch {
	case !status.PortalExists && !status.StoreExists:
		return model.StrategyCreateBoth

	case status.PortalExists && !status.StoreExists:
		if mode == model.AccessModeStoreOnly || mode == model.AccessModeBoth {
			// Portal account is there; create the Store side and link.
			return model.StrategyCreateStoreLinkPortal
		}
		return model.StrategyConfirmExistingPortal

	case !status.PortalExists && status.StoreExists:
		if mode == model.AccessModePortalOnly || mode == model.AccessModeBoth {
			return model.StrategyCreatePortalLinkStore
		}
		return model.StrategyConfirmExistingStore

	case status.PortalExists && status.StoreExists && status.Linked:
		return model.StrategyConfirmExistingLinked

	case status.PortalExists && status.StoreExists && status.Conflict != nil:
		return model.StrategyResolveConflictsAndLink

	case status.PortalExists && status.StoreExists:
		return model.StrategyLinkExisting

	default:
		return model.StrategyManualReview
	}
}
