package subscription

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan describes a purchasable plan. ID must match the gateway plan code so
// checkout metadata and webhook events can be mapped back without a lookup table.
type Plan struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Currency     string `yaml:"currency"`      // ISO 4217
	MonthlyPrice int64  `yaml:"monthly_price"` // smallest currency unit
	YearlyPrice  int64  `yaml:"yearly_price"`  // smallest currency unit
	Public       bool   `yaml:"public"`
}

// Price returns the charge amount for interval in the smallest currency unit.
func (p Plan) Price(interval BillingInterval) (int64, error) {
	switch interval {
	case BillingIntervalMonthly:
		return p.MonthlyPrice, nil
	case BillingIntervalYearly:
		return p.YearlyPrice, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, string(interval))
}

// PlansSource defines how plans are loaded into the ledger.
type PlansSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// MemorySource serves a fixed plan list, mostly for tests and demo mode.
type MemorySource struct {
	plans map[string]Plan
}

// NewMemorySource indexes plans by ID.
func NewMemorySource(plans ...Plan) *MemorySource {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &MemorySource{plans: m}
}

// Load returns a copy of the plan index.
func (s *MemorySource) Load(_ context.Context) (map[string]Plan, error) {
	return maps.Clone(s.plans), nil
}

// YAMLSource loads plans from a YAML file with a top-level "plans" list.
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a source reading from path.
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

// Load parses the plan catalog file.
func (s *YAMLSource) Load(_ context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plans file %s: %w", s.path, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plans file %s: %w", s.path, err)
	}

	plans := make(map[string]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		if _, dup := plans[p.ID]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan ID %s", p.ID))
		}
		plans[p.ID] = p
	}
	return plans, nil
}

// validatePlans catches catalog mistakes at startup.
func validatePlans(plans map[string]Plan) error {
	for planID, plan := range plans {
		if planID == "" {
			return errors.Join(ErrInvalidPlanConfiguration, errors.New("plan ID is empty"))
		}
		if plan.ID != planID {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", planID, plan.ID))
		}
		if plan.MonthlyPrice < 0 || plan.YearlyPrice < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has a negative price", planID))
		}
	}
	return nil
}
