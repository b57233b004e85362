// Package simulated implements an in-memory session provider for
// development and tests. Sessions pair instantly (or on demand), groups live
// in process memory, and every operation can be failed deliberately through
// the fault hooks.
package simulated

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

// Factory creates simulated sessions.
type Factory struct {
	logger *zap.Logger

	// AutoReady makes sessions authenticate themselves right after the QR
	// event, as if the code were scanned immediately. Enabled for dev mode,
	// disabled in tests that drive the lifecycle by hand.
	AutoReady bool

	mu       sync.Mutex
	sessions map[domain.InstanceID]*Session
}

// NewFactory creates a simulated session factory.
func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{
		logger:   logger.Named("simulated"),
		sessions: make(map[domain.InstanceID]*Session),
	}
}

// NewSession creates (or returns the existing) session for an instance.
func (f *Factory) NewSession(ctx context.Context, id domain.InstanceID) (provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	s := &Session{
		id:        id,
		factory:   f,
		logger:    f.logger.With(zap.String("instance_id", id.String())),
		autoReady: f.AutoReady,
		groups:    make(map[string]*simGroup),
	}
	f.sessions[id] = s
	return s, nil
}

// DeleteCredentials drops the simulated session state for an instance.
func (f *Factory) DeleteCredentials(ctx context.Context, id domain.InstanceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

// Close releases nothing; simulated state lives in process memory.
func (f *Factory) Close() error {
	return nil
}

// SessionFor returns the live simulated session for an instance, for tests
// that drive lifecycle events by hand.
func (f *Factory) SessionFor(id domain.InstanceID) (*Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

type simGroup struct {
	id           string
	name         string
	topic        string
	owner        string
	createdAt    time.Time
	participants map[string]domain.GroupParticipant
	order        []string
	inviteCode   string
	announce     bool
	locked       bool
}

// Faults lets tests fail individual operations. A nil field means the
// operation succeeds.
type Faults struct {
	Send         error
	CreateGroup  error
	GroupInfo    error
	Participants error
	InviteLink   error
	SetName      error
	SetTopic     error
	SetAnnounce  error
	SetLocked    error
	// PromoteFor fails promotion only for the listed participant addresses.
	PromoteFor map[string]error
}

// Session is one simulated messaging session.
type Session struct {
	id      domain.InstanceID
	factory *Factory
	logger  *zap.Logger

	mu        sync.RWMutex
	handler   provider.EventHandler
	started   bool
	connected bool
	autoReady bool
	phone     string
	groups    map[string]*simGroup
	faults    Faults

	// calls counts provider operations, letting tests assert that guarded
	// operations never reached the provider.
	calls int
}

// SetFaults replaces the session's fault configuration.
func (s *Session) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

// Calls returns the number of messaging/group operations that reached the
// provider.
func (s *Session) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// OnEvent registers the lifecycle event handler.
func (s *Session) OnEvent(handler provider.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *Session) emit(evt provider.Event) {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler != nil {
		handler(evt)
	}
}

// Start emits a QR event and, with AutoReady, authenticates immediately.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started && s.connected {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	autoReady := s.autoReady
	s.mu.Unlock()

	s.emit(provider.Event{Type: provider.EventQR, Code: "sim-qr-" + uuid.NewString()})
	if autoReady {
		s.Authenticate("")
	}
	return nil
}

// Authenticate simulates a successful QR scan: the session connects and the
// authenticated and ready events fire.
func (s *Session) Authenticate(phone string) {
	s.mu.Lock()
	s.connected = true
	if phone != "" {
		s.phone = phone
	} else if s.phone == "" {
		s.phone = "15550000000"
	}
	s.mu.Unlock()

	s.emit(provider.Event{Type: provider.EventAuthenticated})
	s.emit(provider.Event{Type: provider.EventReady})
}

// FailAuth simulates an authentication failure.
func (s *Session) FailAuth(reason string) {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.emit(provider.Event{Type: provider.EventAuthFailure, Reason: reason})
}

// Drop simulates the session losing its connection.
func (s *Session) Drop(reason string) {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.emit(provider.Event{Type: provider.EventDisconnected, Reason: reason})
}

// Disconnect tears down the connection.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	s.started = false
	s.mu.Unlock()
	if wasConnected {
		s.emit(provider.Event{Type: provider.EventDisconnected, Reason: "disconnect requested"})
	}
	return nil
}

// Logout disconnects and forgets the simulated pairing.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.Disconnect(); err != nil {
		return err
	}
	s.mu.Lock()
	s.phone = ""
	s.mu.Unlock()
	return nil
}

// Phone returns the simulated paired phone number.
func (s *Session) Phone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phone
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return provider.ErrNotConnected
	}
	s.calls++
	return nil
}

// SendText records a message send and returns a fresh message ID.
func (s *Session) SendText(ctx context.Context, to, text string) (domain.SendResult, error) {
	if err := s.begin(); err != nil {
		return domain.SendResult{}, err
	}
	s.mu.RLock()
	fault := s.faults.Send
	s.mu.RUnlock()
	if fault != nil {
		return domain.SendResult{}, fault
	}
	return domain.SendResult{
		MessageID: strings.ToUpper(uuid.NewString()),
		Timestamp: time.Now().UTC(),
		To:        to,
	}, nil
}

// CreateGroup creates an in-memory group.
func (s *Session) CreateGroup(ctx context.Context, name string, participants []string) (provider.GroupInfo, error) {
	if err := s.begin(); err != nil {
		return provider.GroupInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults.CreateGroup != nil {
		return provider.GroupInfo{}, s.faults.CreateGroup
	}

	owner := s.phone + domain.UserAddressSuffix
	g := &simGroup{
		id:           fmt.Sprintf("%d%s", time.Now().UnixNano(), domain.GroupAddressSuffix),
		name:         name,
		owner:        owner,
		createdAt:    time.Now().UTC(),
		participants: make(map[string]domain.GroupParticipant),
		inviteCode:   newInviteCode(),
	}
	g.addParticipant(owner, true, true)
	for _, p := range participants {
		g.addParticipant(p, false, false)
	}
	s.groups[g.id] = g
	return g.info(), nil
}

func (g *simGroup) addParticipant(addr string, admin, super bool) {
	if _, ok := g.participants[addr]; ok {
		return
	}
	g.participants[addr] = domain.GroupParticipant{ID: addr, IsAdmin: admin, IsSuperAdmin: super}
	g.order = append(g.order, addr)
}

func (g *simGroup) info() provider.GroupInfo {
	parts := make([]domain.GroupParticipant, 0, len(g.order))
	for _, addr := range g.order {
		parts = append(parts, g.participants[addr])
	}
	return provider.GroupInfo{
		ID:                      g.id,
		Name:                    g.name,
		Topic:                   g.topic,
		OwnerID:                 g.owner,
		CreatedAt:               g.createdAt,
		Participants:            parts,
		MessagesAdminsOnly:      g.announce,
		EditGroupInfoAdminsOnly: g.locked,
	}
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:22]
}

func (s *Session) group(groupID string) (*simGroup, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, provider.ErrGroupNotFound
	}
	return g, nil
}

// GroupInfo resolves one group.
func (s *Session) GroupInfo(ctx context.Context, groupID string) (provider.GroupInfo, error) {
	if err := s.begin(); err != nil {
		return provider.GroupInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.faults.GroupInfo != nil {
		return provider.GroupInfo{}, s.faults.GroupInfo
	}
	g, err := s.group(groupID)
	if err != nil {
		return provider.GroupInfo{}, err
	}
	return g.info(), nil
}

// JoinedGroups lists every simulated group.
func (s *Session) JoinedGroups(ctx context.Context) ([]provider.GroupInfo, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]provider.GroupInfo, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.info())
	}
	return out, nil
}

// UpdateParticipants applies a membership mutation.
func (s *Session) UpdateParticipants(ctx context.Context, groupID string, participants []string, op provider.ParticipantOp) ([]domain.ParticipantChange, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults.Participants != nil {
		return nil, s.faults.Participants
	}
	g, err := s.group(groupID)
	if err != nil {
		return nil, err
	}

	changes := make([]domain.ParticipantChange, 0, len(participants))
	for _, addr := range participants {
		change := domain.ParticipantChange{ID: addr}
		switch op {
		case provider.ParticipantAdd:
			g.addParticipant(addr, false, false)
		case provider.ParticipantRemove:
			delete(g.participants, addr)
			for i, a := range g.order {
				if a == addr {
					g.order = append(g.order[:i], g.order[i+1:]...)
					break
				}
			}
		case provider.ParticipantPromote:
			if fault := s.faults.PromoteFor[addr]; fault != nil {
				return nil, fault
			}
			p, ok := g.participants[addr]
			if !ok {
				change.Error = "not a participant"
				break
			}
			p.IsAdmin = true
			g.participants[addr] = p
		case provider.ParticipantDemote:
			p, ok := g.participants[addr]
			if !ok {
				change.Error = "not a participant"
				break
			}
			p.IsAdmin = false
			g.participants[addr] = p
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// InviteLink returns (or with reset, replaces) the group's invite code.
func (s *Session) InviteLink(ctx context.Context, groupID string, reset bool) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults.InviteLink != nil {
		return "", s.faults.InviteLink
	}
	g, err := s.group(groupID)
	if err != nil {
		return "", err
	}
	if reset || g.inviteCode == "" {
		g.inviteCode = newInviteCode()
	}
	return g.inviteCode, nil
}

// SetName renames the group.
func (s *Session) SetName(ctx context.Context, groupID, name string) error {
	return s.mutateGroup(groupID, func(g *simGroup) error {
		if s.faults.SetName != nil {
			return s.faults.SetName
		}
		g.name = name
		return nil
	})
}

// SetTopic updates the group description.
func (s *Session) SetTopic(ctx context.Context, groupID, topic string) error {
	return s.mutateGroup(groupID, func(g *simGroup) error {
		if s.faults.SetTopic != nil {
			return s.faults.SetTopic
		}
		g.topic = topic
		return nil
	})
}

// SetAnnounce toggles admins-only messaging.
func (s *Session) SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error {
	return s.mutateGroup(groupID, func(g *simGroup) error {
		if s.faults.SetAnnounce != nil {
			return s.faults.SetAnnounce
		}
		g.announce = adminsOnly
		return nil
	})
}

// SetLocked toggles admins-only group-info edits.
func (s *Session) SetLocked(ctx context.Context, groupID string, adminsOnly bool) error {
	return s.mutateGroup(groupID, func(g *simGroup) error {
		if s.faults.SetLocked != nil {
			return s.faults.SetLocked
		}
		g.locked = adminsOnly
		return nil
	})
}

func (s *Session) mutateGroup(groupID string, fn func(*simGroup) error) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.group(groupID)
	if err != nil {
		return err
	}
	return fn(g)
}
