// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package persist records every prediction for later retraining.

After a successful analysis the API hands the feature vector, the churn
label and, when the request carried it, the raw customer record to a
Persister. The Persister performs two independent writes:

  - a row appended to the customer history CSV (history.Appender)
  - a customer record inserted into DuckDB (database.DB)

Neither write can change the HTTP response. A failed write is logged,
counted in insurepredict_persistence_failures_total and, when an outbox
is configured, stored in a BadgerDB outbox. The Replayer drains the
outbox in the background at a bounded rate and gives up on an entry after
a configured number of attempts.

Database writes go through a gobreaker circuit breaker so that a broken
database file fails fast instead of stalling every request.

Replays are safe: customer inserts upsert on id with the queued values. A history row
can be appended twice if the process dies between the append and the
outbox delete.
*/
package persist
