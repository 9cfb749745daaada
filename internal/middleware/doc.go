// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package middleware provides HTTP middleware for the prediction API.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and stores it in the
    logging context so every log line for the request carries request_id
  - AccessLog: one zerolog line per request with status, size and latency
  - PrometheusMetrics: request count, latency histogram and in-flight gauge

All middleware uses the http.HandlerFunc signature. The api package adapts
them to chi with a small wrapper:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

RequestID must run first so the other two see the ID.
*/
package middleware
