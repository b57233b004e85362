package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
)

// CreateGroupRequest is the body of POST /group/create
type CreateGroupRequest struct {
	InstanceID   string   `json:"instanceId"`
	GroupName    string   `json:"groupName"`
	Participants []string `json:"participants"`
}

// CreateGroup creates a group with the given participants.
func (h *Handlers) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	result, err := ctrl.CreateGroup(c.Request.Context(), req.GroupName, req.Participants)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"groupId":      result.GroupID,
		"groupName":    result.GroupName,
		"participants": result.Participants,
		"inviteCode":   result.InviteCode,
	})
}

// ParticipantsRequest is the body of the participant mutation endpoints.
type ParticipantsRequest struct {
	InstanceID   string   `json:"instanceId"`
	Participants []string `json:"participants"`
	AsAdmin      bool     `json:"asAdmin"`
}

// AddParticipants adds members to a group, optionally promoting each one.
func (h *Handlers) AddParticipants(c *gin.Context) {
	var req ParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	result, err := ctrl.AddParticipants(c.Request.Context(), c.Param("id"), req.Participants, req.AsAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"groupId":           result.GroupID,
		"addedParticipants": result.AddedParticipants,
		"asAdmin":           result.AsAdmin,
		"result":            result.Result,
	})
}

// PromoteParticipants grants admin to the given members, all-or-nothing.
func (h *Handlers) PromoteParticipants(c *gin.Context) {
	var req ParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	groupID, promoted, err := ctrl.PromoteParticipants(c.Request.Context(), c.Param("id"), req.Participants)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"groupId":              groupID,
		"promotedParticipants": promoted,
	})
}

// DemoteParticipants removes admin from the given members, all-or-nothing.
func (h *Handlers) DemoteParticipants(c *gin.Context) {
	var req ParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	groupID, demoted, err := ctrl.DemoteParticipants(c.Request.Context(), c.Param("id"), req.Participants)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"groupId":             groupID,
		"demotedParticipants": demoted,
	})
}

// UpdateGroupSettingsRequest is the body of PUT /group/:id/settings.
// Absent fields are left untouched.
type UpdateGroupSettingsRequest struct {
	InstanceID              string  `json:"instanceId"`
	Subject                 *string `json:"subject"`
	Description             *string `json:"description"`
	MessagesAdminsOnly      *bool   `json:"messagesAdminsOnly"`
	EditGroupInfoAdminsOnly *bool   `json:"editGroupInfoAdminsOnly"`
}

// UpdateGroupSettings applies a partial settings patch to a group.
func (h *Handlers) UpdateGroupSettings(c *gin.Context) {
	var req UpdateGroupSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	patch := domain.GroupSettingsPatch{
		Subject:                 req.Subject,
		Description:             req.Description,
		MessagesAdminsOnly:      req.MessagesAdminsOnly,
		EditGroupInfoAdminsOnly: req.EditGroupInfoAdminsOnly,
	}

	groupID, updated, err := ctrl.UpdateGroupSettings(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"groupId":         groupID,
		"updatedSettings": updated,
	})
}

// ListGroups returns summaries for every group the instance participates in.
func (h *Handlers) ListGroups(c *gin.Context) {
	ctrl, ok := h.controllerFor(c, c.Param("id"))
	if !ok {
		return
	}

	groups, err := ctrl.GetAllGroups(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if groups == nil {
		groups = []domain.GroupSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    groups,
	})
}

// ListGroupsSummary returns group summaries plus aggregate counts.
func (h *Handlers) ListGroupsSummary(c *gin.Context) {
	ctrl, ok := h.controllerFor(c, c.Param("id"))
	if !ok {
		return
	}

	groups, err := ctrl.GetAllGroups(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if groups == nil {
		groups = []domain.GroupSummary{}
	}

	totalParticipants := 0
	for _, g := range groups {
		totalParticipants += g.ParticipantCount
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    groups,
		"meta": gin.H{
			"instanceId":        ctrl.ID().String(),
			"totalGroups":       len(groups),
			"totalParticipants": totalParticipants,
			"generatedAt":       time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// GetGroup returns the detail record for one group.
func (h *Handlers) GetGroup(c *gin.Context) {
	ctrl, ok := h.controllerFor(c, c.Param("id"))
	if !ok {
		return
	}

	detail, err := ctrl.GetGroupByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    detail,
	})
}

// InviteLinkRequest is the body of the invite-link POST and DELETE endpoints.
type InviteLinkRequest struct {
	InstanceID  string `json:"instanceId"`
	ForceCreate bool   `json:"forceCreate"`
}

// GetInviteLink returns the group's invite link, minting one on demand.
// GET variant; instanceId and forceCreate come from the query string.
func (h *Handlers) GetInviteLink(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("forceCreate"))
	h.inviteLink(c, c.Query("instanceId"), force)
}

// CreateInviteLink is the POST variant of GetInviteLink.
func (h *Handlers) CreateInviteLink(c *gin.Context) {
	var req InviteLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	h.inviteLink(c, req.InstanceID, req.ForceCreate)
}

func (h *Handlers) inviteLink(c *gin.Context, instanceID string, forceCreate bool) {
	ctrl, ok := h.controllerFor(c, instanceID)
	if !ok {
		return
	}

	link, err := ctrl.GetOrCreateInviteLink(c.Request.Context(), c.Param("id"), forceCreate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"groupId":    link.GroupID,
		"groupName":  link.GroupName,
		"inviteCode": link.InviteCode,
		"inviteLink": link.InviteLink,
		"created":    link.Created,
	})
}

// RevokeInviteLink invalidates the group's current invite link.
func (h *Handlers) RevokeInviteLink(c *gin.Context) {
	var req InviteLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	groupID, groupName, err := ctrl.RevokeInviteLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"groupId":   groupID,
		"groupName": groupName,
		"message":   "Invite link revoked",
	})
}

// BatchInviteLinksRequest is the body of POST /groups/invite-links/batch
type BatchInviteLinksRequest struct {
	InstanceID  string   `json:"instanceId"`
	GroupIDs    []string `json:"groupIds"`
	ForceCreate bool     `json:"forceCreate"`
}

type batchInviteError struct {
	GroupID string `json:"groupId"`
	Error   string `json:"error"`
}

// BatchInviteLinks fetches invite links for several groups in one call. A
// failure for one group is recorded and does not stop the rest.
func (h *Handlers) BatchInviteLinks(c *gin.Context) {
	var req BatchInviteLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if len(req.GroupIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "groupIds must be a non-empty list"})
		return
	}

	ctrl, ok := h.controllerFor(c, req.InstanceID)
	if !ok {
		return
	}

	results := make([]domain.InviteLink, 0, len(req.GroupIDs))
	failures := make([]batchInviteError, 0)
	for _, groupID := range req.GroupIDs {
		link, err := ctrl.GetOrCreateInviteLink(c.Request.Context(), groupID, req.ForceCreate)
		if err != nil {
			h.logger.Warn("Batch invite link failed for group",
				zap.String("instance_id", req.InstanceID),
				zap.String("group_id", groupID),
				zap.Error(err))
			failures = append(failures, batchInviteError{GroupID: groupID, Error: err.Error()})
			continue
		}
		results = append(results, link)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
		"errors":  failures,
		"summary": gin.H{
			"total":      len(req.GroupIDs),
			"successful": len(results),
			"failed":     len(failures),
		},
	})
}
