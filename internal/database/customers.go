// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of PolicyStartDate.
const DateLayout = "2006-01-02"

// CustomerRecord is one stored customer together with the prediction made
// for them. Churn is "Yes" or "No".
type CustomerRecord struct {
	ID                  string    `json:"id" validate:"omitempty,max=10"`
	Name                string    `json:"name" validate:"max=100"`
	Age                 int       `json:"age" validate:"gte=0,lte=130"`
	Gender              string    `json:"gender" validate:"max=10"`
	InsuranceType       string    `json:"insurance_type" validate:"max=50"`
	Earnings            float64   `json:"earnings" validate:"gte=0"`
	ClaimAmount         float64   `json:"claim_amount" validate:"gte=0"`
	InsurancePlanAmount float64   `json:"insurance_plan_amount" validate:"gte=0"`
	PlanType            string    `json:"plan_type" validate:"max=50"`
	CreditScore         int       `json:"credit_score" validate:"gte=0,lte=1000"`
	MaritalStatus       string    `json:"marital_status" validate:"max=20"`
	PolicyStartDate     string    `json:"policy_start_date" validate:"omitempty,datetime=2006-01-02"`
	Churn               string    `json:"churn" validate:"omitempty,oneof=Yes No"`
	ChurnProbability    float64   `json:"churn_probability" validate:"gte=0,lte=1"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewCustomerID returns a short random identifier that fits the id column.
func NewCustomerID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

const customerColumns = `id, name, age, gender, insurance_type, earnings, claim_amount,
		insurance_plan_amount, plan_type, credit_score, marital_status,
		policy_start_date, churn, churn_probability, created_at`

// InsertCustomer stores rec. A missing ID or CreatedAt is filled in on rec.
// An existing ID is updated in place with the latest prediction; its
// created_at is kept.
func (db *DB) InsertCustomer(ctx context.Context, rec *CustomerRecord) error {
	if db.isClosed() {
		return ErrClosed
	}
	if rec.ID == "" {
		rec.ID = NewCustomerID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Churn == "" {
		rec.Churn = "No"
	}

	var startDate interface{}
	if rec.PolicyStartDate != "" {
		d, err := time.Parse(DateLayout, rec.PolicyStartDate)
		if err != nil {
			return fmt.Errorf("invalid policy_start_date %q: %w", rec.PolicyStartDate, err)
		}
		startDate = d
	}

	query := `INSERT INTO customers (` + customerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			insurance_type = EXCLUDED.insurance_type,
			earnings = EXCLUDED.earnings,
			claim_amount = EXCLUDED.claim_amount,
			insurance_plan_amount = EXCLUDED.insurance_plan_amount,
			plan_type = EXCLUDED.plan_type,
			credit_score = EXCLUDED.credit_score,
			marital_status = EXCLUDED.marital_status,
			policy_start_date = EXCLUDED.policy_start_date,
			churn = EXCLUDED.churn,
			churn_probability = EXCLUDED.churn_probability`

	_, err := db.conn.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Age, rec.Gender, rec.InsuranceType,
		rec.Earnings, rec.ClaimAmount, rec.InsurancePlanAmount, rec.PlanType,
		rec.CreditScore, rec.MaritalStatus, startDate,
		rec.Churn, rec.ChurnProbability, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer %s: %w", rec.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*CustomerRecord, error) {
	var (
		rec       CustomerRecord
		startDate sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Age, &rec.Gender, &rec.InsuranceType,
		&rec.Earnings, &rec.ClaimAmount, &rec.InsurancePlanAmount, &rec.PlanType,
		&rec.CreditScore, &rec.MaritalStatus, &startDate,
		&rec.Churn, &rec.ChurnProbability, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		rec.PolicyStartDate = startDate.Time.Format(DateLayout)
	}
	return &rec, nil
}

// GetCustomer returns the record with id, or ErrNotFound.
func (db *DB) GetCustomer(ctx context.Context, id string) (*CustomerRecord, error) {
	if db.isClosed() {
		return nil, ErrClosed
	}
	row := db.conn.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	rec, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	return rec, nil
}

// ListCustomers returns up to limit records, newest first.
func (db *DB) ListCustomers(ctx context.Context, limit int) ([]CustomerRecord, error) {
	if db.isClosed() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer closeQuietly(rows)

	var out []CustomerRecord
	for rows.Next() {
		rec, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return out, nil
}

// ChurnStats summarizes stored predictions.
type ChurnStats struct {
	Total           int64   `json:"total"`
	Churned         int64   `json:"churned"`
	MeanProbability float64 `json:"mean_probability"`
}

// CustomerStats counts stored customers and churn labels.
func (db *DB) CustomerStats(ctx context.Context) (ChurnStats, error) {
	if db.isClosed() {
		return ChurnStats{}, ErrClosed
	}
	var s ChurnStats
	err := db.conn.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE churn = 'Yes'),
			COALESCE(AVG(churn_probability), 0)
		FROM customers`).Scan(&s.Total, &s.Churned, &s.MeanProbability)
	if err != nil {
		return ChurnStats{}, fmt.Errorf("failed to compute customer stats: %w", err)
	}
	return s, nil
}
