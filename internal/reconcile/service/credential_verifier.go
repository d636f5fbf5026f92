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
	"errors"
	"fmt"
	"net/http"

	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
)

// ErrInvalidCredentials is the single verification failure the verifier
// exposes. "No such account" and "wrong password" both collapse into it
// so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifierInterface verifies an (email, password) pair against
// one identity system.
type CredentialVerifierInterface interface {
	Verify(ctx context.Context, system, email, password string) (*model.Profile, error)
}

// CredentialVerifier is the default implementation of CredentialVerifierInterface.
type CredentialVerifier struct {
	portal portalclient.PortalClientInterface
	store  storeclient.StoreClientInterface
}

// NewCredentialVerifier creates a verifier over the two system clients.
func NewCredentialVerifier(portal portalclient.PortalClientInterface, store storeclient.StoreClientInterface) *CredentialVerifier {
	return &CredentialVerifier{portal: portal, store: store}
}

// Verify checks the credentials against the named system. Verification is
// never retried. Only two error shapes leave this method: the collapsed
// ErrInvalidCredentials, or a ServerError for a genuine infrastructure
// failure.
func (v *CredentialVerifier) Verify(ctx context.Context, system, email, password string) (*model.Profile, error) {

	switch system {
	case constants.SystemPortal:
		return v.verifyPortal(ctx, email, password)
	case constants.SystemStore:
		return v.verifyStore(ctx, email, password)
	default:
		return nil, fmt.Errorf("unknown identity system: %s", system)
	}
}

func (v *CredentialVerifier) verifyPortal(ctx context.Context, email, password string) (*model.Profile, error) {

	profile, err := v.portal.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, portalclient.ErrInvalidLogin) || errors.Is(err, portalclient.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return profile, nil
}

func (v *CredentialVerifier) verifyStore(ctx context.Context, email, password string) (*model.Profile, error) {

	result, err := v.store.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, storeclient.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		if errors.Is(err, storeclient.ErrUnavailable) {
			return nil, errors2.NewServerError(errors2.STORE_UNAVAILABLE, err)
		}
		return nil, err
	}

	return &model.Profile{
		Ref:       model.IdentityRef{StoreID: result.User.ID},
		Email:     result.User.Email,
		FirstName: result.User.FirstName,
		LastName:  result.User.LastName,
	}, nil
}

// InvalidCredentialsError is the externally visible form of a failed
// verification, identical for every underlying cause.
func InvalidCredentialsError() *errors2.ClientError {
	return errors2.NewClientError(errors2.INVALID_CREDENTIALS, http.StatusUnauthorized)
}
