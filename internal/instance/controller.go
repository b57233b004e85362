package instance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

// EventSink receives lifecycle events after the controller has applied them
// to its own state. The registry uses it for record persistence and event
// broadcasting.
type EventSink func(id domain.InstanceID, evt provider.Event)

// Controller owns exactly one session and presents the uniform,
// provider-agnostic operation surface for it. Readiness is a small state
// machine driven by provider events; all reads and writes of that state are
// guarded so HTTP handlers on any goroutine see a consistent view.
type Controller struct {
	id      domain.InstanceID
	session provider.Session
	logger  *zap.Logger
	sink    EventSink

	mu          sync.RWMutex
	state       domain.InstanceState
	qrCode      string
	connectedAt *time.Time
}

// NewController wraps a session and wires its event stream into the
// readiness state machine.
func NewController(id domain.InstanceID, session provider.Session, logger *zap.Logger, sink EventSink) *Controller {
	c := &Controller{
		id:      id,
		session: session,
		logger:  logger.Named("controller").With(zap.String("instance_id", id.String())),
		sink:    sink,
		state:   domain.StateInitializing,
	}
	session.OnEvent(c.handleEvent)
	return c
}

// ID returns the instance identifier.
func (c *Controller) ID() domain.InstanceID {
	return c.id
}

// Phone returns the paired phone number, if known.
func (c *Controller) Phone() string {
	return c.session.Phone()
}

// ConnectedAt returns when the session last became ready.
func (c *Controller) ConnectedAt() *time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectedAt
}

func (c *Controller) handleEvent(evt provider.Event) {
	c.mu.Lock()
	switch evt.Type {
	case provider.EventQR:
		c.state = domain.StateAwaitingScan
		c.qrCode = evt.Code
	case provider.EventAuthenticated:
		// state advances on ready
	case provider.EventReady:
		c.state = domain.StateReady
		c.qrCode = ""
		now := time.Now().UTC()
		c.connectedAt = &now
	case provider.EventDisconnected:
		c.state = domain.StateDisconnected
		c.qrCode = ""
	case provider.EventAuthFailure:
		c.state = domain.StateInitializing
		c.qrCode = ""
	}
	c.mu.Unlock()

	switch evt.Type {
	case provider.EventQR:
		c.logger.Info("QR code received")
	case provider.EventAuthenticated:
		c.logger.Info("Session authenticated")
	case provider.EventReady:
		c.logger.Info("Session ready")
	case provider.EventDisconnected:
		c.logger.Warn("Session disconnected", zap.String("reason", evt.Reason))
	case provider.EventAuthFailure:
		c.logger.Error("Authentication failed", zap.String("reason", evt.Reason))
	}

	if c.sink != nil {
		c.sink(c.id, evt)
	}
}

// Initialize starts the session. It reports whether the start attempt
// succeeded; readiness arrives later through the event stream.
func (c *Controller) Initialize(ctx context.Context) error {
	c.logger.Info("Initializing session")
	if err := c.session.Start(ctx); err != nil {
		c.logger.Error("Session start failed", zap.Error(err))
		return err
	}
	return nil
}

// Status is a pure read of the instance's readiness; it has no readiness
// precondition.
func (c *Controller) Status() domain.InstanceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.InstanceStatus{
		InstanceID: c.id,
		IsReady:    c.state == domain.StateReady,
		HasQR:      c.qrCode != "",
		State:      c.state,
	}
}

// QRCode returns the pairing code awaiting scan.
func (c *Controller) QRCode() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.qrCode == "" {
		return "", ErrNoQRCode
	}
	return c.qrCode, nil
}

func (c *Controller) requireReady() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != domain.StateReady {
		return ErrNotReady
	}
	return nil
}

// Disconnect tears down the session. Failures are reported but the caller
// treats them as log-only.
func (c *Controller) Disconnect() error {
	c.logger.Info("Disconnecting session")
	return c.session.Disconnect()
}

// Logout disconnects and purges the session's credentials.
func (c *Controller) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// SendMessage normalizes the recipient and sends a text message.
func (c *Controller) SendMessage(ctx context.Context, to, text string) (domain.SendResult, error) {
	if strings.TrimSpace(to) == "" || text == "" {
		return domain.SendResult{}, fmt.Errorf("%w: to and message are required", ErrInvalidArgument)
	}
	if err := c.requireReady(); err != nil {
		return domain.SendResult{}, err
	}

	addr := domain.NormalizeAddress(to)
	result, err := c.session.SendText(ctx, addr, text)
	if err != nil {
		c.logger.Error("Message send failed", zap.String("to", addr), zap.Error(err))
		return domain.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	c.logger.Info("Message sent", zap.String("to", addr), zap.String("message_id", result.MessageID))
	return result, nil
}

// CreateGroup creates a group with the normalized participants and fetches
// its invite code best-effort.
func (c *Controller) CreateGroup(ctx context.Context, name string, participants []string) (domain.CreateGroupResult, error) {
	if strings.TrimSpace(name) == "" {
		return domain.CreateGroupResult{}, fmt.Errorf("%w: groupName is required", ErrInvalidArgument)
	}
	addrs := domain.NormalizeAddresses(participants)
	if len(addrs) == 0 {
		return domain.CreateGroupResult{}, fmt.Errorf("%w: participants must be a non-empty list", ErrInvalidArgument)
	}
	if err := c.requireReady(); err != nil {
		return domain.CreateGroupResult{}, err
	}

	info, err := c.session.CreateGroup(ctx, name, addrs)
	if err != nil {
		c.logger.Error("Group creation failed", zap.String("group_name", name), zap.Error(err))
		return domain.CreateGroupResult{}, fmt.Errorf("%w: %v", ErrGroupCreateFailed, err)
	}

	inviteCode, err := c.session.InviteLink(ctx, info.ID, false)
	if err != nil {
		c.logger.Warn("Could not fetch invite code for new group",
			zap.String("group_id", info.ID), zap.Error(err))
		inviteCode = ""
	}

	c.logger.Info("Group created",
		zap.String("group_id", info.ID),
		zap.Int("participants", len(addrs)))
	return domain.CreateGroupResult{
		GroupID:      info.ID,
		GroupName:    info.Name,
		Participants: addrs,
		InviteCode:   inviteCode,
	}, nil
}

// normalizeGroupID accepts a bare group id or a full group address.
func normalizeGroupID(groupID string) string {
	if !strings.Contains(groupID, "@") {
		return groupID + domain.GroupAddressSuffix
	}
	return groupID
}

// resolveGroup resolves and validates a group target.
func (c *Controller) resolveGroup(ctx context.Context, groupID string) (provider.GroupInfo, error) {
	id := normalizeGroupID(groupID)
	if !domain.IsGroupAddress(id) {
		return provider.GroupInfo{}, fmt.Errorf("%w: %s", ErrNotAGroup, groupID)
	}
	info, err := c.session.GroupInfo(ctx, id)
	if err != nil {
		if err == provider.ErrGroupNotFound {
			return provider.GroupInfo{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return provider.GroupInfo{}, err
	}
	return info, nil
}

// UpdateGroupSettings applies the present patch fields independently, in a
// fixed order, and returns the applied values. A failure aborts the call
// without reporting the fields already applied; side effects of those fields
// remain in the external system.
func (c *Controller) UpdateGroupSettings(ctx context.Context, groupID string, patch domain.GroupSettingsPatch) (string, map[string]interface{}, error) {
	if err := c.requireReady(); err != nil {
		return "", nil, err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return "", nil, err
	}

	applied := make(map[string]interface{})
	fail := func(field string, err error) (string, map[string]interface{}, error) {
		c.logger.Error("Group settings update failed",
			zap.String("group_id", info.ID),
			zap.String("field", field),
			zap.Error(err))
		return "", nil, fmt.Errorf("%w: %s: %v", ErrSettingsUpdateFailed, field, err)
	}

	if patch.Subject != nil {
		if err := c.session.SetName(ctx, info.ID, *patch.Subject); err != nil {
			return fail("subject", err)
		}
		applied["subject"] = *patch.Subject
	}
	if patch.Description != nil {
		if err := c.session.SetTopic(ctx, info.ID, *patch.Description); err != nil {
			return fail("description", err)
		}
		applied["description"] = *patch.Description
	}
	if patch.MessagesAdminsOnly != nil {
		if err := c.session.SetAnnounce(ctx, info.ID, *patch.MessagesAdminsOnly); err != nil {
			return fail("messagesAdminsOnly", err)
		}
		applied["messagesAdminsOnly"] = *patch.MessagesAdminsOnly
	}
	if patch.EditGroupInfoAdminsOnly != nil {
		if err := c.session.SetLocked(ctx, info.ID, *patch.EditGroupInfoAdminsOnly); err != nil {
			return fail("editGroupInfoAdminsOnly", err)
		}
		applied["editGroupInfoAdminsOnly"] = *patch.EditGroupInfoAdminsOnly
	}

	c.logger.Info("Group settings updated",
		zap.String("group_id", info.ID),
		zap.Int("fields", len(applied)))
	return info.ID, applied, nil
}

// AddParticipants adds the normalized participants to a group. With asAdmin,
// each added participant is promoted individually; a promotion failure is
// logged and never fails the call or blocks the remaining promotions.
func (c *Controller) AddParticipants(ctx context.Context, groupID string, participants []string, asAdmin bool) (domain.AddParticipantsResult, error) {
	addrs := domain.NormalizeAddresses(participants)
	if len(addrs) == 0 {
		return domain.AddParticipantsResult{}, fmt.Errorf("%w: participants must be a non-empty list", ErrInvalidArgument)
	}
	if err := c.requireReady(); err != nil {
		return domain.AddParticipantsResult{}, err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return domain.AddParticipantsResult{}, err
	}

	changes, err := c.session.UpdateParticipants(ctx, info.ID, addrs, provider.ParticipantAdd)
	if err != nil {
		c.logger.Error("Participant add failed", zap.String("group_id", info.ID), zap.Error(err))
		return domain.AddParticipantsResult{}, fmt.Errorf("%w: %v", ErrParticipantsFailed, err)
	}

	if asAdmin {
		for _, addr := range addrs {
			if _, err := c.session.UpdateParticipants(ctx, info.ID, []string{addr}, provider.ParticipantPromote); err != nil {
				c.logger.Warn("Promotion after add failed",
					zap.String("group_id", info.ID),
					zap.String("participant", addr),
					zap.Error(err))
			}
		}
	}

	c.logger.Info("Participants added",
		zap.String("group_id", info.ID),
		zap.Int("count", len(addrs)),
		zap.Bool("as_admin", asAdmin))
	return domain.AddParticipantsResult{
		GroupID:           info.ID,
		AddedParticipants: addrs,
		AsAdmin:           asAdmin,
		Result:            changes,
	}, nil
}

// PromoteParticipants grants admin to the normalized participants,
// all-or-nothing.
func (c *Controller) PromoteParticipants(ctx context.Context, groupID string, participants []string) (string, []string, error) {
	return c.changeRoles(ctx, groupID, participants, provider.ParticipantPromote)
}

// DemoteParticipants removes admin from the normalized participants,
// all-or-nothing.
func (c *Controller) DemoteParticipants(ctx context.Context, groupID string, participants []string) (string, []string, error) {
	return c.changeRoles(ctx, groupID, participants, provider.ParticipantDemote)
}

func (c *Controller) changeRoles(ctx context.Context, groupID string, participants []string, op provider.ParticipantOp) (string, []string, error) {
	addrs := domain.NormalizeAddresses(participants)
	if len(addrs) == 0 {
		return "", nil, fmt.Errorf("%w: participants must be a non-empty list", ErrInvalidArgument)
	}
	if err := c.requireReady(); err != nil {
		return "", nil, err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return "", nil, err
	}

	if _, err := c.session.UpdateParticipants(ctx, info.ID, addrs, op); err != nil {
		c.logger.Error("Role change failed",
			zap.String("group_id", info.ID),
			zap.String("op", string(op)),
			zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", ErrParticipantsFailed, err)
	}
	return info.ID, addrs, nil
}

func summarize(info provider.GroupInfo) domain.GroupSummary {
	var createdAt *time.Time
	if !info.CreatedAt.IsZero() {
		t := info.CreatedAt
		createdAt = &t
	}
	participants := info.Participants
	if participants == nil {
		participants = []domain.GroupParticipant{}
	}
	return domain.GroupSummary{
		ID:               info.ID,
		Name:             info.Name,
		Description:      info.Topic,
		Participants:     participants,
		ParticipantCount: len(participants),
		AdminCount:       domain.AdminCount(participants),
		CreatedAt:        createdAt,
		CreatedBy:        info.OwnerID,
		IsReadOnly:       info.MessagesAdminsOnly,
	}
}

// GetAllGroups lists every group the session participates in. Invite codes
// are omitted from listings; fetching one per group would mean a provider
// round-trip for each.
func (c *Controller) GetAllGroups(ctx context.Context) ([]domain.GroupSummary, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	infos, err := c.session.JoinedGroups(ctx)
	if err != nil {
		c.logger.Error("Group listing failed", zap.Error(err))
		return nil, err
	}
	groups := make([]domain.GroupSummary, 0, len(infos))
	for _, info := range infos {
		groups = append(groups, summarize(info))
	}
	return groups, nil
}

// GetGroupByID resolves a single group with the admin-only setting flags and
// a best-effort invite code.
func (c *Controller) GetGroupByID(ctx context.Context, groupID string) (domain.GroupDetail, error) {
	if err := c.requireReady(); err != nil {
		return domain.GroupDetail{}, err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return domain.GroupDetail{}, err
	}

	detail := domain.GroupDetail{
		GroupSummary:            summarize(info),
		MessagesAdminsOnly:      info.MessagesAdminsOnly,
		EditGroupInfoAdminsOnly: info.EditGroupInfoAdminsOnly,
	}
	if code, err := c.session.InviteLink(ctx, info.ID, false); err == nil {
		detail.InviteCode = code
	}
	return detail, nil
}

// GetOrCreateInviteLink returns the group's existing invite code, or mints a
// fresh one when none exists or forceCreate is set. Minting with an existing
// code revokes it first; that revocation is part of the provider's reset.
func (c *Controller) GetOrCreateInviteLink(ctx context.Context, groupID string, forceCreate bool) (domain.InviteLink, error) {
	if err := c.requireReady(); err != nil {
		return domain.InviteLink{}, err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return domain.InviteLink{}, err
	}

	if !forceCreate {
		code, err := c.session.InviteLink(ctx, info.ID, false)
		if err == nil && code != "" {
			return domain.InviteLink{
				GroupID:    info.ID,
				GroupName:  info.Name,
				InviteCode: code,
				InviteLink: domain.InviteLinkPrefix + code,
				Created:    false,
			}, nil
		}
		if err != nil {
			c.logger.Warn("Could not read existing invite code, minting fresh",
				zap.String("group_id", info.ID), zap.Error(err))
		}
	}

	code, err := c.session.InviteLink(ctx, info.ID, true)
	if err != nil {
		c.logger.Error("Invite code mint failed", zap.String("group_id", info.ID), zap.Error(err))
		return domain.InviteLink{}, fmt.Errorf("%w: %v", ErrInviteLinkFailed, err)
	}
	c.logger.Info("Invite code minted", zap.String("group_id", info.ID))
	return domain.InviteLink{
		GroupID:    info.ID,
		GroupName:  info.Name,
		InviteCode: code,
		InviteLink: domain.InviteLinkPrefix + code,
		Created:    true,
	}, nil
}

// RevokeInviteLink invalidates the group's current invite code.
func (c *Controller) RevokeInviteLink(ctx context.Context, groupID string) (string, string, error) {
	if err := c.requireReady(); err != nil {
		return "", "", err
	}
	info, err := c.resolveGroup(ctx, groupID)
	if err != nil {
		return "", "", err
	}
	if _, err := c.session.InviteLink(ctx, info.ID, true); err != nil {
		c.logger.Error("Invite code revocation failed", zap.String("group_id", info.ID), zap.Error(err))
		return "", "", fmt.Errorf("%w: %v", ErrRevokeFailed, err)
	}
	c.logger.Info("Invite code revoked", zap.String("group_id", info.ID))
	return info.ID, info.Name, nil
}
