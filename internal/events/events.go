// Package events declares the event payloads published on the bus.
// Subscribers (telemetry, logging) react to these without the core
// packages knowing about them.
package events

import "time"

// PlanStart is emitted when field processing begins for an action.
type PlanStart struct {
	Resource string
	Action   string
}

// PlanFinish is emitted after field processing completes, whether it
// produced a plan or an error.
type PlanFinish struct {
	Resource string
	Action   string
	Err      error
	Duration time.Duration
}

// GenerateStart is emitted when schema generation begins.
type GenerateStart struct {
	Roots []string
}

// GenerateFinish is emitted after schema generation completes.
type GenerateFinish struct {
	Roots    []string
	Err      error
	Duration time.Duration
}

// CatalogLoaded is emitted after the definition catalog is built.
type CatalogLoaded struct {
	Documents int
	Resources int
	Duration  time.Duration
}
