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
	"context"
	"sync"

	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

// AccountProberInterface queries both identity systems for account
// existence. Probing never mutates state.
type AccountProberInterface interface {
	Probe(ctx context.Context, email string) model.AccountStatus
}

// AccountProber is the default implementation of AccountProberInterface.
type AccountProber struct {
	portal       portalclient.PortalClientInterface
	store        storeclient.StoreClientInterface
	storeEnabled bool
}

// NewAccountProber creates a prober over the two system clients.
func NewAccountProber(portal portalclient.PortalClientInterface, store storeclient.StoreClientInterface, storeEnabled bool) *AccountProber {
	return &AccountProber{portal: portal, store: store, storeEnabled: storeEnabled}
}

// Probe issues both existence checks concurrently and returns once both
// settle. One side failing never aborts the other: a failed check marks
// that system's state unknown and is logged, leaving the fail-closed
// selector to handle the ambiguity. With Store integration disabled the
// Store side is reported known-absent without any network call.
func (p *AccountProber) Probe(ctx context.Context, email string) model.AccountStatus {

	logger := log.GetLogger()
	status := model.AccountStatus{}

	var wg sync.WaitGroup
	var portalSnapshot, storeSnapshot *model.AccountSnapshot
	var portalErr, storeErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		portalSnapshot, portalErr = p.portal.FindUserByEmail(ctx, email)
	}()

	if p.storeEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			storeSnapshot, storeErr = p.store.CheckUser(ctx, email)
		}()
	} else {
		storeSnapshot = &model.AccountSnapshot{Exists: false, Email: email}
	}

	wg.Wait()

	if portalErr != nil {
		logger.Warn("Portal existence probe failed", log.Error(portalErr))
	} else {
		status.PortalKnown = true
		status.PortalExists = portalSnapshot.Exists
		if portalSnapshot.Exists {
			status.Portal = portalSnapshot
		}
	}

	if storeErr != nil {
		logger.Warn("Store existence probe failed", log.Error(storeErr))
	} else {
		status.StoreKnown = true
		status.StoreExists = storeSnapshot.Exists
		if storeSnapshot.Exists {
			status.Store = storeSnapshot
		}
	}

	if status.Portal != nil && status.Store != nil {
		status.Linked = status.Portal.Ref.StoreID != 0 &&
			status.Portal.Ref.StoreID == status.Store.Ref.StoreID

		status.Conflicts = DetectConflicts(status.Portal, status.Store)
		if len(status.Conflicts) > 0 {
			// Only the first conflict is surfaced today.
			status.Conflict = &status.Conflicts[0]
		}
	}

	return status
}
