package domain

import "time"

// InviteLinkPrefix is the fixed URL prefix invite codes resolve under.
const InviteLinkPrefix = "https://chat.whatsapp.com/"

// GroupParticipant describes one member of a group chat.
type GroupParticipant struct {
	ID           string `json:"id"`
	IsAdmin      bool   `json:"isAdmin"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// GroupSummary is the projection of a group chat returned by the listing
// endpoints.
type GroupSummary struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Participants     []GroupParticipant `json:"participants"`
	ParticipantCount int                `json:"participantCount"`
	AdminCount       int                `json:"adminCount"`
	CreatedAt        *time.Time         `json:"createdAt"`
	CreatedBy        string             `json:"createdBy"`
	IsReadOnly       bool               `json:"isReadOnly"`
	UnreadCount      int                `json:"unreadCount"`
	Archived         bool               `json:"archived"`
	Pinned           bool               `json:"pinned"`
	IsMuted          bool               `json:"isMuted"`
	InviteCode       string             `json:"inviteCode,omitempty"`
}

// GroupDetail extends GroupSummary with the admin-only setting flags that
// are only reported on single-group lookups.
type GroupDetail struct {
	GroupSummary
	MessagesAdminsOnly      bool `json:"messagesAdminsOnly"`
	EditGroupInfoAdminsOnly bool `json:"editGroupInfoAdminsOnly"`
}

// AdminCount returns the number of participants holding any admin role.
func AdminCount(participants []GroupParticipant) int {
	n := 0
	for _, p := range participants {
		if p.IsAdmin || p.IsSuperAdmin {
			n++
		}
	}
	return n
}

// GroupSettingsPatch is a partial update of group settings. Only non-nil
// fields are applied, each independently and in a fixed order.
type GroupSettingsPatch struct {
	Subject                 *string `json:"subject,omitempty"`
	Description             *string `json:"description,omitempty"`
	MessagesAdminsOnly      *bool   `json:"messagesAdminsOnly,omitempty"`
	EditGroupInfoAdminsOnly *bool   `json:"editGroupInfoAdminsOnly,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p GroupSettingsPatch) IsEmpty() bool {
	return p.Subject == nil && p.Description == nil &&
		p.MessagesAdminsOnly == nil && p.EditGroupInfoAdminsOnly == nil
}

// InviteLink is the result of an invite-link read or mint.
type InviteLink struct {
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	InviteCode string `json:"inviteCode"`
	InviteLink string `json:"inviteLink"`
	// Created is true when this call minted a new code, false when an
	// existing code was returned.
	Created bool `json:"created"`
}

// SendResult is the outcome of a successful message send.
type SendResult struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
	To        string    `json:"to"`
}

// CreateGroupResult is the outcome of a successful group creation.
type CreateGroupResult struct {
	GroupID      string   `json:"groupId"`
	GroupName    string   `json:"groupName"`
	Participants []string `json:"participants"`
	InviteCode   string   `json:"inviteCode,omitempty"`
}

// AddParticipantsResult reports what an add call did, including the raw
// per-participant outcome from the provider.
type AddParticipantsResult struct {
	GroupID           string              `json:"groupId"`
	AddedParticipants []string            `json:"addedParticipants"`
	AsAdmin           bool                `json:"asAdmin"`
	Result            []ParticipantChange `json:"result"`
}

// ParticipantChange is the provider's per-participant outcome of a
// membership mutation.
type ParticipantChange struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}
