// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package api serves the prediction pipeline over HTTP using the chi router.

Routes:

	POST /api/predict/          run the full analysis for one feature vector
	POST /api/retrain-model/    retrain the churn model from the history log
	GET  /api/health            service status
	GET  /api/customers/        recent customer records
	GET  /api/customers/stats   churn totals
	GET  /api/customers/{id}    one customer record
	GET  /metrics               Prometheus exposition

Errors are returned as {"error": "<message>"} with a status chosen by
error class: 400 for malformed input and feature contract violations,
404 for unknown records or a missing dataset, 409 for a retrain that is
already running, 503 when the database is disabled, 504 for a retrain
timeout and 500 otherwise.

Handler depends on small interfaces (Analyzer, Recorder, Retrainer,
CustomerReader) so tests can drive it with fakes:

	h := api.NewHandler(api.Deps{
	    Analyzer:  analyzer,
	    Persister: persister,
	    Trainer:   trainer,
	    Customers: db,
	    Retrain:   api.RetrainTarget{Dataset: cfg.Retrain.Dataset, Output: modelPath},
	})
	router := api.NewRouter(h, api.NewChiMiddlewareFromConfig(&cfg.Security))
	srv := &http.Server{Handler: router.SetupChi()}
*/
package api
