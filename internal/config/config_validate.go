// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package config

import (
	"fmt"
	"path/filepath"

	"github.com/tomtom215/insurepredict/internal/validation"
)

// Validate checks struct tags section by section, then the cross-field rules.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    interface{}
	}{
		{"server", &c.Server},
		{"logging", &c.Logging},
		{"models", &c.Models},
		{"pipeline", &c.Pipeline},
		{"history", &c.History},
		{"database", &c.Database},
		{"persistence", &c.Persistence},
		{"retrain", &c.Retrain},
		{"security", &c.Security},
	}
	for _, s := range sections {
		if verr := validation.ValidateStruct(s.v); verr != nil {
			return fmt.Errorf("%s: %w", s.name, verr)
		}
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}
	return c.validateArtifacts()
}

func (c *Config) validateDatabase() error {
	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database: path is required when the database is enabled")
	}
	return nil
}

// validateArtifacts rejects file names that would escape the models
// directory through a relative path.
func (c *Config) validateArtifacts() error {
	names := []string{
		c.Models.ChurnModel, c.Models.PlanModel, c.Models.PlanChurnModel, c.Models.ValueModel,
		c.Models.ChurnScaler, c.Models.PlanScaler, c.Models.PlanChurnScaler,
	}
	for _, n := range names {
		if n == "" || filepath.IsAbs(n) {
			continue
		}
		if !filepath.IsLocal(n) {
			return fmt.Errorf("models: artifact %q must stay inside %s", n, c.Models.Dir)
		}
	}
	return nil
}
