package solver

import "github.com/flowforge/jobshop/pkg/domain"

func newConfigurationError(field, message string) error {
	return domain.NewConfigurationError(message, map[string]any{"field": field})
}
