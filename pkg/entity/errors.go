// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import "errors"

// ConfigError marks a precondition violation: missing identity, missing
// project root, missing descriptor document or missing populate options.
// It is fatal to the operation that raised it and propagates unchanged.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// ErrLiveEntity signals a programmer error: Set only accepts literal
// descriptor documents, never already-materialized entity instances.
var ErrLiveEntity = errors.New("cannot set an entity instance, only a literal")
