// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package services adapts server components to suture.Service.

HTTPServerService runs an *http.Server and shuts it down gracefully when
its context ends. OutboxReplayService drains the persistence outbox on a
fixed interval, plus once at startup.

Both implement fmt.Stringer so suture events name them.
*/
package services
