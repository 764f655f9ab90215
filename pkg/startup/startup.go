// Package startup brings the backing stores up in order with retry
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is a backing store the service needs before serving traffic.
// Dependencies start in registration order and stop in reverse.
type Dependency interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
)

// Startup starts dependencies in order, retrying the whole sequence with
// fibonacci backoff until every dependency is up or attempts run out
type Startup struct {
	dependencies []Dependency
	statuses     map[string]status
	logger       ectologger.Logger
	maxAttempts  int
}

func NewStartup(logger ectologger.Logger, maxAttempts int) *Startup {
	return &Startup{
		logger:      logger,
		statuses:    make(map[string]status),
		maxAttempts: maxAttempts,
	}
}

func (s *Startup) AddDependency(dependency Dependency) {
	s.dependencies = append(s.dependencies, dependency)
}

func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	// Fibonacci backoff sequence
	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		success := true
		for _, dependency := range s.dependencies {
			if err := s.startDependency(ctx, dependency); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", dependency.Name(), attempt)
				lastErr = err
				success = false
				break
			}
		}

		if success {
			return nil
		}

		if attempt >= s.maxAttempts {
			return fmt.Errorf("startup failed after %d attempts: %w", attempt, lastErr)
		}

		waitTime := time.Duration(a) * time.Second
		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// Continue with next attempt
		}

		a, b = b, a+b
	}

	return nil
}

func (s *Startup) startDependency(ctx context.Context, dependency Dependency) error {
	if s.statuses[dependency.Name()] == statusStarted {
		return nil
	}

	s.logger.WithField("dependency", dependency.Name()).Infof("Starting dependency '%s'", dependency.Name())
	if err := dependency.Start(ctx); err != nil {
		s.statuses[dependency.Name()] = statusPending
		return err
	}
	s.statuses[dependency.Name()] = statusStarted
	return nil
}

// Stop shuts the started dependencies down in reverse registration order
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.dependencies) - 1; i >= 0; i-- {
		dependency := s.dependencies[i]
		if s.statuses[dependency.Name()] != statusStarted {
			continue
		}

		s.logger.WithField("dependency", dependency.Name()).Infof("Stopping dependency '%s'", dependency.Name())
		if err := dependency.Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", dependency.Name()).Errorf("Failed to stop dependency '%s'", dependency.Name())
			return err
		}
		s.statuses[dependency.Name()] = statusStopped
	}
	return nil
}
