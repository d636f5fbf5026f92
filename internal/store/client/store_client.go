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
	"net/url"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/config"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/hashicorp/go-retryablehttp"
)

const errorBodyLimit = 1024

// Retry policy for idempotent Store calls. Credential verification is
// never retried to avoid amplifying brute-force attempts.
const (
	defaultMaxRetries = 2
	retryDelay        = 1 * time.Second
)

// Sentinel errors the executor branches on.
var (
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	ErrDuplicateEmail     = errors.New("store: email already registered")
	ErrUnavailable        = errors.New("store: service unavailable")
)

// StoreUser is the Store system's account payload.
type StoreUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUserParams carries the fields for Store account creation.
type CreateUserParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileData is the best-effort profile push payload.
type ProfileData struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// VerifyResult is returned by credential verification.
type VerifyResult struct {
	User               *StoreUser
	NeedsPortalAccount bool
}

// LivenessResult is the unauthenticated probe response.
type LivenessResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StoreClientInterface is the HTTP surface of the secondary commerce system.
type StoreClientInterface interface {
	VerifyCredentials(ctx context.Context, email, password string) (*VerifyResult, error)
	CheckUser(ctx context.Context, email string) (*model.AccountSnapshot, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*StoreUser, error)
	SyncProfile(ctx context.Context, storeUserID int64, profile ProfileData) error
	CreateSession(ctx context.Context, storeUserID int64) error
	Logout(ctx context.Context, storeUserID int64) error
	Liveness(ctx context.Context) (*LivenessResult, time.Duration, error)
}

// StoreClient authenticates every call with the shared API key header.
// Idempotent calls go through a bounded-retry client; credential
// verification goes through a plain client with no retries.
type StoreClient struct {
	BaseURL     string
	APIKey      string
	retryClient *retryablehttp.Client
	plainClient *http.Client
}

// NewStoreClient creates a StoreClient from the runtime configuration.
func NewStoreClient(cfg config.StoreConfig) *StoreClient {

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = retryDelay
	retryClient.RetryWaitMax = retryDelay
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: timeout}

	return &StoreClient{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		retryClient: retryClient,
		plainClient: &http.Client{Timeout: timeout},
	}
}

// VerifyCredentials checks an (email, password) pair. No retries.
func (c *StoreClient) VerifyCredentials(ctx context.Context, email, password string) (*VerifyResult, error) {

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/verify", bytes.NewReader(body))
	if err != nil {
		return nil, errors2.NewServerError(errors2.STORE_UNAVAILABLE, err)
	}
	c.setHeaders(req.Header)

	resp, err := c.plainClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed struct {
		UserData           *StoreUser `json:"user_data"`
		NeedsPortalAccount bool       `json:"needs_portal_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}
	if parsed.UserData == nil {
		return nil, ErrInvalidCredentials
	}

	return &VerifyResult{
		User:               parsed.UserData,
		NeedsPortalAccount: parsed.NeedsPortalAccount,
	}, nil
}

// CheckUser probes for account existence. Absence is a value, not an error.
func (c *StoreClient) CheckUser(ctx context.Context, email string) (*model.AccountSnapshot, error) {

	endpoint := c.BaseURL + "/users/check-user?email=" + url.QueryEscape(email)
	respBody, err := c.doRetryable(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		UserExists bool       `json:"user_exists"`
		UserData   *StoreUser `json:"user_data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}

	if !parsed.UserExists || parsed.UserData == nil {
		return &model.AccountSnapshot{Exists: false, Email: email}, nil
	}
	return snapshotFromStoreUser(parsed.UserData), nil
}

// CreateUser creates a Store account. A duplicate email is a business
// error, not an infrastructure one.
func (c *StoreClient) CreateUser(ctx context.Context, params CreateUserParams) (*StoreUser, error) {

	body, err := json.Marshal(params)
	if err != nil {
		return nil, errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	respBody, err := c.doRetryable(ctx, http.MethodPost, c.BaseURL+"/users/create", body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		UserData *StoreUser `json:"user_data"`
		Error    string     `json:"error"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}
	if parsed.UserData == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, parsed.Error)
	}
	return parsed.UserData, nil
}

// SyncProfile pushes profile data. Upsert semantics on the Store side make
// repeated pushes with the same payload safe.
func (c *StoreClient) SyncProfile(ctx context.Context, storeUserID int64, profile ProfileData) error {

	body, err := json.Marshal(struct {
		WPUserID    int64       `json:"wp_user_id"`
		ProfileData ProfileData `json:"profile_data"`
	}{WPUserID: storeUserID, ProfileData: profile})
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	_, err = c.doRetryable(ctx, http.MethodPost, c.BaseURL+"/users/sync-profile", body)
	return err
}

// CreateSession mirrors a Portal login into a Store session.
func (c *StoreClient) CreateSession(ctx context.Context, storeUserID int64) error {

	body, err := json.Marshal(map[string]int64{"wp_user_id": storeUserID})
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	_, err = c.doRetryable(ctx, http.MethodPost, c.BaseURL+"/auth/create-session", body)
	return err
}

// Logout ends the companion Store session.
func (c *StoreClient) Logout(ctx context.Context, storeUserID int64) error {

	body, err := json.Marshal(map[string]int64{"wp_user_id": storeUserID})
	if err != nil {
		return errors2.NewServerError(errors2.MARSHAL_JSON, err)
	}

	_, err = c.doRetryable(ctx, http.MethodPost, c.BaseURL+"/auth/logout", body)
	return err
}

// Liveness issues the unauthenticated probe and measures response time.
// No retries; the health monitor interprets one-shot results.
func (c *StoreClient) Liveness(ctx context.Context) (*LivenessResult, time.Duration, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/test", nil)
	if err != nil {
		return nil, 0, errors2.NewServerError(errors2.STORE_UNAVAILABLE, err)
	}

	start := time.Now()
	resp, err := c.plainClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, elapsed, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed LivenessResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, elapsed, errors2.NewServerError(errors2.UNMARSHAL_JSON, err)
	}
	return &parsed, elapsed, nil
}

// doRetryable runs one call through the bounded-retry client.
func (c *StoreClient) doRetryable(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors2.NewServerError(errors2.STORE_UNAVAILABLE, err)
	}
	c.setHeaders(req.Header)

	resp, err := c.retryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, truncate(respBody))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors2.NewServerError(errors2.STORE_UNAVAILABLE,
			fmt.Errorf("store %s %s returned status %d: %s", method, endpoint, resp.StatusCode, truncate(respBody)))
	}
	return respBody, nil
}

func (c *StoreClient) setHeaders(h http.Header) {
	h.Set("Content-Type", "application/json")
	h.Set(constants.StoreAPIKeyHeader, c.APIKey)
}

func truncate(body []byte) string {
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit]
	}
	return string(body)
}

func snapshotFromStoreUser(user *StoreUser) *model.AccountSnapshot {
	return &model.AccountSnapshot{
		Exists:    true,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Ref:       model.IdentityRef{StoreID: user.ID},
	}
}
