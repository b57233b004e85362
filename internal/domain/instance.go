// Package domain contains the core types shared across the instance
// registry, the provider adapters, and the HTTP API.
package domain

import (
	"errors"
	"strings"
	"time"
)

// InstanceID identifies one independent messaging session. It is chosen by
// the caller at creation time and must be unique across the registry.
type InstanceID string

func (id InstanceID) String() string {
	return string(id)
}

// Validate checks that the instance ID is usable as a registry key and as a
// path segment of the credential directory.
func (id InstanceID) Validate() error {
	if id == "" {
		return errors.New("instance id must not be empty")
	}
	if strings.ContainsAny(string(id), "/\\") {
		return errors.New("instance id must not contain path separators")
	}
	return nil
}

// InstanceState is the readiness state of a session, driven by provider
// lifecycle events.
type InstanceState string

const (
	StateInitializing InstanceState = "initializing"
	StateAwaitingScan InstanceState = "awaiting_scan"
	StateReady        InstanceState = "ready"
	StateDisconnected InstanceState = "disconnected"
)

// InstanceStatus is the externally visible status of an instance.
type InstanceStatus struct {
	InstanceID InstanceID    `json:"instanceId"`
	IsReady    bool          `json:"isReady"`
	HasQR      bool          `json:"hasQR"`
	State      InstanceState `json:"state"`
}

// InstanceRecord is the persisted metadata for an instance. The session
// credentials themselves are owned by the provider; this record only tracks
// registry-level state for listing and diagnostics.
type InstanceRecord struct {
	ID          InstanceID    `json:"id" bson:"_id"`
	State       InstanceState `json:"state" bson:"state"`
	Phone       string        `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	ConnectedAt *time.Time    `json:"connectedAt,omitempty" bson:"connected_at,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}
