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

package store

import (
	"fmt"

	"github.com/bda-portal/identity-reconciliation-service/internal/compensation/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/database/provider"
	errors2 "github.com/bda-portal/identity-reconciliation-service/internal/system/errors"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
)

// CompensationStoreInterface defines persistence for the compensating-action log.
type CompensationStoreInterface interface {
	InsertRecord(record *model.CompensationRecord) error
	GetRecord(recordID string) (*model.CompensationRecord, error)
	ListPending() ([]*model.CompensationRecord, error)
	UpdateState(recordID, state string, updatedAt int64) error
}

// CompensationStore is the Postgres-backed implementation.
type CompensationStore struct{}

// InsertRecord writes a new compensation record.
func (s *CompensationStore) InsertRecord(record *model.CompensationRecord) error {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for compensation record: %s", record.RecordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to begin transaction for compensation record: %s", record.RecordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}

	query := `INSERT INTO compensation_records
	          (record_id, trace_id, email, portal_id, store_id, reason, strategy, detail, state, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = tx.Exec(query, record.RecordID, record.TraceID, record.Email, record.PortalID, record.StoreID,
		record.Reason, record.Strategy, record.Detail, record.State, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Debug("Failed to rollback compensation record insert", log.Error(rbErr))
		}
		errorMsg := fmt.Sprintf("Failed to insert compensation record: %s", record.RecordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	return tx.Commit()
}

// GetRecord retrieves a record by id. Absence returns nil, nil.
func (s *CompensationStore) GetRecord(recordID string) (*model.CompensationRecord, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for fetching compensation record: %s", recordID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	query := `SELECT record_id, trace_id, email, portal_id, store_id, reason, strategy, detail, state, created_at, updated_at
	          FROM compensation_records WHERE record_id = $1`
	rows, err := dbClient.ExecuteQuery(query, recordID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to fetch compensation record: %s", recordID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapRowToRecord(rows[0]), nil
}

// ListPending returns all records still awaiting manual reconciliation.
func (s *CompensationStore) ListPending() ([]*model.CompensationRecord, error) {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		logger.Debug("Failed to get db client for listing pending compensation records", log.Error(err))
		return nil, errors2.NewServerError(errors2.COMPENSATION_RECORD_FAILED, err)
	}
	defer dbClient.Close()

	query := `SELECT record_id, trace_id, email, portal_id, store_id, reason, strategy, detail, state, created_at, updated_at
	          FROM compensation_records WHERE state = $1 ORDER BY created_at`
	rows, err := dbClient.ExecuteQuery(query, model.StatePending)
	if err != nil {
		logger.Debug("Failed to list pending compensation records", log.Error(err))
		return nil, errors2.NewServerError(errors2.COMPENSATION_RECORD_FAILED, err)
	}

	var records []*model.CompensationRecord
	for _, row := range rows {
		records = append(records, mapRowToRecord(row))
	}
	return records, nil
}

// UpdateState transitions a record between pending and resolved.
func (s *CompensationStore) UpdateState(recordID, state string, updatedAt int64) error {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for updating compensation record: %s", recordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to begin transaction for updating compensation record: %s", recordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}

	query := `UPDATE compensation_records SET state = $1, updated_at = $2 WHERE record_id = $3`
	_, err = tx.Exec(query, state, updatedAt, recordID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Debug("Failed to rollback compensation record update", log.Error(rbErr))
		}
		errorMsg := fmt.Sprintf("Failed to update compensation record: %s", recordID)
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.COMPENSATION_RECORD_FAILED.Code,
			Message:     errors2.COMPENSATION_RECORD_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	return tx.Commit()
}

// mapRowToRecord maps a DB result row to the model.
func mapRowToRecord(row map[string]interface{}) *model.CompensationRecord {
	record := &model.CompensationRecord{
		RecordID: row["record_id"].(string),
		TraceID:  row["trace_id"].(string),
		Email:    row["email"].(string),
		Reason:   row["reason"].(string),
		Strategy: row["strategy"].(string),
		Detail:   row["detail"].(string),
		State:    row["state"].(string),
	}
	if v, ok := row["portal_id"].(string); ok {
		record.PortalID = v
	}
	if v, ok := row["store_id"].(int64); ok {
		record.StoreID = v
	}
	if v, ok := row["created_at"].(int64); ok {
		record.CreatedAt = v
	}
	if v, ok := row["updated_at"].(int64); ok {
		record.UpdatedAt = v
	}
	return record
}
