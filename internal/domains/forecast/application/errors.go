package application

import (
	"errors"
	"fmt"

	"github.com/fincast/balance-forecast/internal/domains/forecast/domain"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid rule input")

// ErrConfiguration signals the run cannot start at all: settings or the rule
// source are missing or unusable. Unlike per-rule data problems this aborts
// the run with no partial write.
var ErrConfiguration = errors.New("forecast configuration error")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrUnknownFrequency) ||
		errors.Is(err, domain.ErrInvalidStride) ||
		errors.Is(err, domain.ErrMissingStartDate) ||
		errors.Is(err, domain.ErrInvertedWindow) ||
		errors.Is(err, domain.ErrInvalidDirection) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func configError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, stage, err)
}
