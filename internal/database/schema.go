// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package database

import (
	"context"
	"fmt"
)

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT,
		age INTEGER,
		gender TEXT,
		insurance_type TEXT,
		earnings DOUBLE,
		claim_amount DOUBLE,
		insurance_plan_amount DOUBLE,
		plan_type TEXT,
		credit_score INTEGER,
		marital_status TEXT,
		policy_start_date DATE,
		churn TEXT NOT NULL,
		churn_probability DOUBLE NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, q := range schemaQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
