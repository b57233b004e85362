// Package provider defines the session-provider capability that the
// instance registry orchestrates. A provider represents one live messaging
// session: it is started asynchronously, emits lifecycle events while it
// authenticates, and exposes messaging and group operations once ready.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
)

// EventType identifies a session lifecycle event.
type EventType string

const (
	EventQR            EventType = "qr"
	EventReady         EventType = "ready"
	EventAuthenticated EventType = "authenticated"
	EventAuthFailure   EventType = "auth_failure"
	EventDisconnected  EventType = "disconnected"
)

// Event is a lifecycle event emitted by a session provider.
type Event struct {
	Type EventType
	// Code carries the QR pairing code for EventQR.
	Code string
	// Reason carries failure detail for EventAuthFailure and
	// EventDisconnected.
	Reason string
}

// EventHandler receives lifecycle events. Handlers must not block; the
// provider may deliver events from its own network goroutine.
type EventHandler func(Event)

// GroupInfo is the provider-level view of a group chat.
type GroupInfo struct {
	ID                      string
	Name                    string
	Topic                   string
	OwnerID                 string
	CreatedAt               time.Time
	Participants            []domain.GroupParticipant
	MessagesAdminsOnly      bool
	EditGroupInfoAdminsOnly bool
}

// ParticipantOp selects the membership mutation applied by
// UpdateParticipants.
type ParticipantOp string

const (
	ParticipantAdd     ParticipantOp = "add"
	ParticipantRemove  ParticipantOp = "remove"
	ParticipantPromote ParticipantOp = "promote"
	ParticipantDemote  ParticipantOp = "demote"
)

// ErrGroupNotFound is returned when a group ID does not resolve.
var ErrGroupNotFound = errors.New("group not found")

// ErrNotConnected is returned by operations invoked before the session has
// authenticated.
var ErrNotConnected = errors.New("session not connected")

// Session is one messaging session. Implementations must be safe for
// concurrent use.
type Session interface {
	// Start begins connecting the session. It returns once the connection
	// attempt is underway; authentication progress arrives via events.
	Start(ctx context.Context) error

	// Disconnect tears down the connection, keeping credentials so the
	// session can be started again without a new pairing.
	Disconnect() error

	// Logout disconnects and purges the session's stored credentials.
	Logout(ctx context.Context) error

	// OnEvent registers the lifecycle event handler. Must be called before
	// Start.
	OnEvent(handler EventHandler)

	// Phone returns the phone number of the paired account, if known.
	Phone() string

	// SendText sends a text message to a canonical address.
	SendText(ctx context.Context, to, text string) (domain.SendResult, error)

	// CreateGroup creates a group with the given participants and returns
	// its info.
	CreateGroup(ctx context.Context, name string, participants []string) (GroupInfo, error)

	// GroupInfo resolves a single group. Returns ErrGroupNotFound if the id
	// does not resolve to a group chat.
	GroupInfo(ctx context.Context, groupID string) (GroupInfo, error)

	// JoinedGroups lists every group chat the session participates in.
	JoinedGroups(ctx context.Context) ([]GroupInfo, error)

	// UpdateParticipants applies one membership mutation to a group and
	// returns the per-participant outcome.
	UpdateParticipants(ctx context.Context, groupID string, participants []string, op ParticipantOp) ([]domain.ParticipantChange, error)

	// InviteLink returns the group's invite code. With reset, the previous
	// code is revoked and a fresh one minted.
	InviteLink(ctx context.Context, groupID string, reset bool) (string, error)

	// SetName, SetTopic, SetAnnounce and SetLocked mutate group settings.
	SetName(ctx context.Context, groupID, name string) error
	SetTopic(ctx context.Context, groupID, topic string) error
	SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error
	SetLocked(ctx context.Context, groupID string, adminsOnly bool) error
}

// Factory creates sessions for instance IDs. The whatsmeow factory hands out
// sessions backed by a shared credential container; the simulated factory
// hands out in-memory sessions for development and tests.
type Factory interface {
	// NewSession creates (or reattaches to) the session for an instance.
	NewSession(ctx context.Context, id domain.InstanceID) (Session, error)

	// DeleteCredentials removes any persisted credential state for an
	// instance that no longer has a live session.
	DeleteCredentials(ctx context.Context, id domain.InstanceID) error

	// Close releases the factory's shared resources.
	Close() error
}
