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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

// Sentinel errors internal callers branch on. The reconciliation engine
// collapses these before anything reaches the caller.
var (
	ErrInvalidLogin  = errors.New("portal: invalid login credentials")
	ErrDatabaseError = errors.New("portal: database error creating account")
	ErrEmailExists   = errors.New("portal: email already registered")
	ErrUserNotFound  = errors.New("portal: user not found")
)

// SignUpParams carries the fields pushed to the Portal on account creation.
type SignUpParams struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// ProfileUpdates carries the mutable profile fields for an update push.
type ProfileUpdates struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// PortalClientInterface is the RPC surface of the primary identity system.
// All operations are treated as atomic, trusted primitives.
type PortalClientInterface interface {
	SignIn(ctx context.Context, email, password string) (*model.Profile, error)
	SignUp(ctx context.Context, params SignUpParams) (*model.Profile, error)
	UpdateUserProfile(ctx context.Context, portalID string, updates ProfileUpdates) error
	LinkStoreAccount(ctx context.Context, portalID string, storeID int64) error
	UpsertUserAccount(ctx context.Context, params SignUpParams) (*model.Profile, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	FindUserByEmail(ctx context.Context, email string) (*model.AccountSnapshot, error)
	SignOut(ctx context.Context, portalID string) error
}

// PortalClient talks to the Portal RPC endpoint over HTTPS with a service key.
type PortalClient struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
}

// NewPortalClient creates a PortalClient from the runtime configuration.
func NewPortalClient(cfg config.PortalConfig) *PortalClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &PortalClient{
		BaseURL:    cfg.BaseURL,
		ServiceKey: cfg.ServiceKey,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSHandshakeTimeout: 10 * time.Second,
				IdleConnTimeout:     60 * time.Second,
				MaxIdleConns:        100,
				MaxConnsPerHost:     100,
			},
			Timeout: timeout,
		},
	}
}

type portalUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	StoreUserID  int64  `json:"store_user_id"`
}

type portalResponse struct {
	User        *portalUser `json:"user"`
	AccessToken string      `json:"access_token"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn verifies credentials and returns the authenticated profile.
// A wrong password and an unknown email both surface as ErrInvalidLogin.
func (c *PortalClient) SignIn(ctx context.Context, email, password string) (*model.Profile, error) {

	resp, err := c.call(ctx, "signIn", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return profileFromResponse(resp)
}

// SignUp creates a new Portal account.
func (c *PortalClient) SignUp(ctx context.Context, params SignUpParams) (*model.Profile, error) {

	resp, err := c.call(ctx, "signUp", params)
	if err != nil {
		return nil, err
	}
	return profileFromResponse(resp)
}

// UpdateUserProfile pushes profile field updates for an existing account.
func (c *PortalClient) UpdateUserProfile(ctx context.Context, portalID string, updates ProfileUpdates) error {

	_, err := c.call(ctx, "updateUserProfile", struct {
		PortalID string `json:"portal_id"`
		ProfileUpdates
	}{PortalID: portalID, ProfileUpdates: updates})
	return err
}

// LinkStoreAccount records the durable cross-reference to a Store account.
func (c *PortalClient) LinkStoreAccount(ctx context.Context, portalID string, storeID int64) error {

	_, err := c.call(ctx, "linkStoreAccount", map[string]interface{}{
		"portal_id":     portalID,
		"store_user_id": storeID,
	})
	return err
}

// UpsertUserAccount is the idempotent recovery path for account creation.
func (c *PortalClient) UpsertUserAccount(ctx context.Context, params SignUpParams) (*model.Profile, error) {

	resp, err := c.call(ctx, "upsertUserAccount", params)
	if err != nil {
		return nil, err
	}
	return profileFromResponse(resp)
}

// ResetPasswordForEmail triggers a password-reset email.
func (c *PortalClient) ResetPasswordForEmail(ctx context.Context, email string) error {

	_, err := c.call(ctx, "resetPasswordForEmail", map[string]string{"email": email})
	return err
}

// FindUserByEmail probes for an account without mutating state. Absence is
// a value, not an error: a missing user returns a snapshot with Exists=false.
func (c *PortalClient) FindUserByEmail(ctx context.Context, email string) (*model.AccountSnapshot, error) {

	resp, err := c.call(ctx, "findUserByEmail", map[string]string{"email": email})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &model.AccountSnapshot{Exists: false, Email: email}, nil
		}
		return nil, err
	}
	if resp.User == nil {
		return &model.AccountSnapshot{Exists: false, Email: email}, nil
	}
	return snapshotFromUser(resp.User), nil
}

// SignOut terminates the Portal session for the given account.
func (c *PortalClient) SignOut(ctx context.Context, portalID string) error {

	_, err := c.call(ctx, "signOut", map[string]string{"portal_id": portalID})
	return err
}

// call issues one RPC and maps error payloads to sentinel errors.
func (c *PortalClient) call(ctx context.Context, method string, payload interface{}) (*portalResponse, error) {

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	endpoint := fmt.Sprintf("%s/rpc/%s", c.BaseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors2.NewServerError(errors2.PORTAL_UNAVAILABLE, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors2.NewServerError(errors2.PORTAL_UNAVAILABLE, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors2.NewServerError(errors2.PORTAL_UNAVAILABLE, err)
	}

	var parsed portalResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}

	if parsed.Error != nil {
		return nil, mapPortalError(method, parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors2.NewServerError(errors2.PORTAL_UNAVAILABLE,
			fmt.Errorf("portal %s returned status %d", method, resp.StatusCode))
	}

	return &parsed, nil
}

// mapPortalError converts the Portal's error payload into sentinel errors
// the executor can branch on.
func mapPortalError(method, code, message string) error {

	logger := log.GetLogger()
	logger.Debug("Portal call returned error",
		log.String("method", method), log.String("code", code))

	switch code {
	case "invalid_login", "invalid_credentials":
		return ErrInvalidLogin
	case "database_error", "unexpected_failure":
		return ErrDatabaseError
	case "email_exists", "user_already_exists":
		return ErrEmailExists
	case "user_not_found":
		return ErrUserNotFound
	default:
		return errors2.NewServerError(errors2.PORTAL_UNAVAILABLE,
			fmt.Errorf("portal %s failed: %s (%s)", method, message, code))
	}
}

func profileFromResponse(resp *portalResponse) (*model.Profile, error) {
	if resp.User == nil {
		return nil, errors2.NewServerError(errors2.PORTAL_UNAVAILABLE,
			errors.New("portal response missing user payload"))
	}
	return &model.Profile{
		Ref: model.IdentityRef{
			PortalID: resp.User.ID,
			StoreID:  resp.User.StoreUserID,
		},
		Email:        resp.User.Email,
		FirstName:    resp.User.FirstName,
		LastName:     resp.User.LastName,
		Role:         resp.User.Role,
		Organization: resp.User.Organization,
		AccessToken:  resp.AccessToken,
	}, nil
}

func snapshotFromUser(user *portalUser) *model.AccountSnapshot {
	return &model.AccountSnapshot{
		Exists:       true,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		Organization: user.Organization,
		Ref: model.IdentityRef{
			PortalID: user.ID,
			StoreID:  user.StoreUserID,
		},
	}
}
