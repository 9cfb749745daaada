// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package database stores customer records in an embedded DuckDB file.
//
// Every successful prediction that carries raw customer data produces one
// row in the customers table, together with the churn label and probability
// the pipeline assigned. Inserts upsert on id: a repeat customer gets the
// latest prediction, and a replayed outbox record rewrites the same values.
//
// Files:
//   - database.go: connection lifecycle and pool settings
//   - schema.go: table creation
//   - customers.go: CustomerRecord and its CRUD operations
//   - errors.go: sentinel errors and close helpers
package database
