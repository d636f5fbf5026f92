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
	"fmt"
	"net/http"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/compensation/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/compensation/store"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/google/uuid"
)

// PendingAction captures what failed mid-sequence and where.
type PendingAction struct {
	TraceID  string
	Email    string
	PortalID string
	StoreID  int64
	Strategy string
	Detail   string
}

type CompensationServiceInterface interface {
	RecordRollbackPending(action PendingAction) (*model.CompensationRecord, error)
	RecordManualReview(action PendingAction) (*model.CompensationRecord, error)
	ListPending() ([]*model.CompensationRecord, error)
	Resolve(recordID string) (*model.CompensationRecord, error)
}

// CompensationService is the default implementation of CompensationServiceInterface.
type CompensationService struct {
	store store.CompensationStoreInterface
}

// GetCompensationService returns a concrete service with store injected.
func GetCompensationService() CompensationServiceInterface {
	return &CompensationService{
		store: &store.CompensationStore{},
	}
}

// RecordRollbackPending logs a Portal account left behind by a fatal
// Store-side failure. The record is also emitted as an audit event so the
// log survives even if the database write fails.
func (s *CompensationService) RecordRollbackPending(action PendingAction) (*model.CompensationRecord, error) {

	return s.record(model.ReasonRollbackPending, log.ActionRollbackPending, action)
}

// RecordManualReview logs an account state the decision table refused to
// mutate automatically.
func (s *CompensationService) RecordManualReview(action PendingAction) (*model.CompensationRecord, error) {

	return s.record(model.ReasonManualReview, log.ActionReconcileComplete, action)
}

func (s *CompensationService) record(reason, auditAction string, action PendingAction) (*model.CompensationRecord, error) {

	now := time.Now().Unix()
	record := &model.CompensationRecord{
		RecordID:  uuid.New().String(),
		TraceID:   action.TraceID,
		Email:     action.Email,
		PortalID:  action.PortalID,
		StoreID:   action.StoreID,
		Reason:    reason,
		Strategy:  action.Strategy,
		Detail:    action.Detail,
		State:     model.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger := log.GetLogger()
	logger.Audit(log.AuditEvent{
		InitiatorID:   action.Email,
		InitiatorType: log.InitiatorTypeSystem,
		TargetID:      record.RecordID,
		TargetType:    log.TargetTypeReconciliation,
		ActionID:      auditAction,
		TraceID:       action.TraceID,
		Data: map[string]interface{}{
			"reason":   reason,
			"strategy": action.Strategy,
			"detail":   action.Detail,
		},
	})

	if err := s.store.InsertRecord(record); err != nil {
		// The audit line above is the fallback trail for operators.
		logger.Error("Failed to persist compensation record", log.Error(err),
			log.String("record_id", record.RecordID))
		return nil, err
	}
	return record, nil
}

// ListPending returns all records awaiting manual reconciliation.
func (s *CompensationService) ListPending() ([]*model.CompensationRecord, error) {

	return s.store.ListPending()
}

// Resolve marks a record as manually reconciled.
func (s *CompensationService) Resolve(recordID string) (*model.CompensationRecord, error) {

	record, err := s.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		errorMsg := fmt.Sprintf("No pending record found for record id: %s", recordID)
		return nil, errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.RECORD_NOT_FOUND.Code,
			Message:     errors2.RECORD_NOT_FOUND.Message,
			Description: errorMsg,
		}, http.StatusNotFound)
	}

	now := time.Now().Unix()
	if err := s.store.UpdateState(recordID, model.StateResolved, now); err != nil {
		return nil, err
	}
	record.State = model.StateResolved
	record.UpdatedAt = now
	return record, nil
}
