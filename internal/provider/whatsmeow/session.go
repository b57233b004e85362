package whatsmeow

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

// Session wraps one whatsmeow client.
type Session struct {
	id      domain.InstanceID
	client  *whatsmeow.Client
	factory *Factory
	logger  *zap.Logger

	mu      sync.Mutex
	handler provider.EventHandler
}

func newSession(id domain.InstanceID, client *whatsmeow.Client, f *Factory) *Session {
	s := &Session{
		id:      id,
		client:  client,
		factory: f,
		logger:  f.logger.With(zap.String("instance_id", id.String())),
	}
	client.AddEventHandler(s.handleEvent)
	return s
}

// OnEvent registers the lifecycle event handler.
func (s *Session) OnEvent(handler provider.EventHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func (s *Session) emit(evt provider.Event) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(evt)
	}
}

func (s *Session) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.PairSuccess:
		s.emit(provider.Event{Type: provider.EventAuthenticated})
	case *events.Connected:
		if s.client.Store.ID != nil {
			s.factory.bindDevice(s.id, *s.client.Store.ID)
		}
		s.emit(provider.Event{Type: provider.EventReady})
	case *events.Disconnected:
		s.emit(provider.Event{Type: provider.EventDisconnected, Reason: "connection lost"})
	case *events.LoggedOut:
		s.emit(provider.Event{Type: provider.EventAuthFailure, Reason: v.Reason.String()})
	}
}

// Start connects the client. For unpaired devices the QR channel is pumped
// into qr events until pairing finishes or the channel closes.
func (s *Session) Start(ctx context.Context) error {
	if s.client.Store.ID == nil {
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			return err
		}
		go func() {
			for item := range qrChan {
				if item.Event == "code" {
					s.emit(provider.Event{Type: provider.EventQR, Code: item.Code})
				}
			}
		}()
	}
	return s.client.Connect()
}

// Disconnect tears down the connection, keeping credentials.
func (s *Session) Disconnect() error {
	s.client.Disconnect()
	return nil
}

// Logout unpairs the device and purges its credentials.
func (s *Session) Logout(ctx context.Context) error {
	if s.client.Store.ID == nil {
		s.client.Disconnect()
		return nil
	}
	return s.client.Logout(ctx)
}

// Phone returns the paired phone number, if any.
func (s *Session) Phone() string {
	if s.client.Store.ID == nil {
		return ""
	}
	return s.client.Store.ID.User
}

// toJID converts a canonical address into a whatsmeow JID. Canonical user
// addresses use the @c.us suffix; on the wire the user server is
// s.whatsapp.net.
func toJID(addr string) (types.JID, error) {
	if user, ok := strings.CutSuffix(addr, domain.UserAddressSuffix); ok {
		return types.NewJID(user, types.DefaultUserServer), nil
	}
	return types.ParseJID(addr)
}

// fromJID converts a whatsmeow JID back into canonical address form.
func fromJID(jid types.JID) string {
	if jid.Server == types.DefaultUserServer {
		return jid.User + domain.UserAddressSuffix
	}
	return jid.String()
}

func toJIDs(addrs []string) ([]types.JID, error) {
	jids := make([]types.JID, 0, len(addrs))
	for _, addr := range addrs {
		jid, err := toJID(addr)
		if err != nil {
			return nil, err
		}
		jids = append(jids, jid)
	}
	return jids, nil
}

// SendText sends a plain text message.
func (s *Session) SendText(ctx context.Context, to, text string) (domain.SendResult, error) {
	jid, err := toJID(to)
	if err != nil {
		return domain.SendResult{}, err
	}
	resp, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return domain.SendResult{}, err
	}
	return domain.SendResult{
		MessageID: resp.ID,
		Timestamp: resp.Timestamp,
		To:        to,
	}, nil
}

func toGroupInfo(info *types.GroupInfo) provider.GroupInfo {
	parts := make([]domain.GroupParticipant, 0, len(info.Participants))
	for _, p := range info.Participants {
		parts = append(parts, domain.GroupParticipant{
			ID:           fromJID(p.JID),
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
		})
	}
	return provider.GroupInfo{
		ID:                      info.JID.String(),
		Name:                    info.GroupName.Name,
		Topic:                   info.GroupTopic.Topic,
		OwnerID:                 fromJID(info.OwnerJID),
		CreatedAt:               info.GroupCreated,
		Participants:            parts,
		MessagesAdminsOnly:      info.GroupAnnounce.IsAnnounce,
		EditGroupInfoAdminsOnly: info.GroupLocked.IsLocked,
	}
}

// CreateGroup creates a group with the given participants.
func (s *Session) CreateGroup(ctx context.Context, name string, participants []string) (provider.GroupInfo, error) {
	jids, err := toJIDs(participants)
	if err != nil {
		return provider.GroupInfo{}, err
	}
	info, err := s.client.CreateGroup(ctx, whatsmeow.ReqCreateGroup{
		Name:         name,
		Participants: jids,
	})
	if err != nil {
		return provider.GroupInfo{}, err
	}
	return toGroupInfo(info), nil
}

// GroupInfo resolves one group.
func (s *Session) GroupInfo(ctx context.Context, groupID string) (provider.GroupInfo, error) {
	jid, err := types.ParseJID(groupID)
	if err != nil || jid.Server != types.GroupServer {
		return provider.GroupInfo{}, provider.ErrGroupNotFound
	}
	info, err := s.client.GetGroupInfo(ctx, jid)
	if err != nil {
		if strings.Contains(err.Error(), "item-not-found") {
			return provider.GroupInfo{}, provider.ErrGroupNotFound
		}
		return provider.GroupInfo{}, err
	}
	return toGroupInfo(info), nil
}

// JoinedGroups lists all joined group chats.
func (s *Session) JoinedGroups(ctx context.Context) ([]provider.GroupInfo, error) {
	infos, err := s.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]provider.GroupInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, toGroupInfo(info))
	}
	return out, nil
}

var participantOps = map[provider.ParticipantOp]whatsmeow.ParticipantChange{
	provider.ParticipantAdd:     whatsmeow.ParticipantChangeAdd,
	provider.ParticipantRemove:  whatsmeow.ParticipantChangeRemove,
	provider.ParticipantPromote: whatsmeow.ParticipantChangePromote,
	provider.ParticipantDemote:  whatsmeow.ParticipantChangeDemote,
}

// UpdateParticipants applies a membership mutation to a group.
func (s *Session) UpdateParticipants(ctx context.Context, groupID string, participants []string, op provider.ParticipantOp) ([]domain.ParticipantChange, error) {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return nil, provider.ErrGroupNotFound
	}
	jids, err := toJIDs(participants)
	if err != nil {
		return nil, err
	}
	result, err := s.client.UpdateGroupParticipants(ctx, jid, jids, participantOps[op])
	if err != nil {
		return nil, err
	}
	changes := make([]domain.ParticipantChange, 0, len(result))
	for _, p := range result {
		change := domain.ParticipantChange{ID: fromJID(p.JID)}
		if p.Error != 0 {
			change.Error = participantError(p.Error)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func participantError(code int) string {
	switch code {
	case 403:
		return "not allowed"
	case 408:
		return "recently left"
	case 409:
		return "already in group"
	default:
		return "error " + strconv.Itoa(code)
	}
}

// InviteLink returns the group's invite code, minting a fresh one with
// reset. whatsmeow returns the full URL; the caller wants the bare code.
func (s *Session) InviteLink(ctx context.Context, groupID string, reset bool) (string, error) {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return "", provider.ErrGroupNotFound
	}
	link, err := s.client.GetGroupInviteLink(ctx, jid, reset)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(link, domain.InviteLinkPrefix), nil
}

// SetName renames the group.
func (s *Session) SetName(ctx context.Context, groupID, name string) error {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return provider.ErrGroupNotFound
	}
	return s.client.SetGroupName(ctx, jid, name)
}

// SetTopic updates the group description.
func (s *Session) SetTopic(ctx context.Context, groupID, topic string) error {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return provider.ErrGroupNotFound
	}
	return s.client.SetGroupTopic(ctx, jid, "", "", topic)
}

// SetAnnounce toggles admins-only messaging.
func (s *Session) SetAnnounce(ctx context.Context, groupID string, adminsOnly bool) error {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return provider.ErrGroupNotFound
	}
	return s.client.SetGroupAnnounce(ctx, jid, adminsOnly)
}

// SetLocked toggles admins-only group-info edits.
func (s *Session) SetLocked(ctx context.Context, groupID string, adminsOnly bool) error {
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return provider.ErrGroupNotFound
	}
	return s.client.SetGroupLocked(ctx, jid, adminsOnly)
}
