package instance

import "errors"

// Sentinel errors for the error taxonomy. Handlers map these onto HTTP
// status codes; controller methods wrap provider failures with the typed
// operation error so callers can use errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("instance already exists")
	ErrNotReady        = errors.New("instance not ready")
	ErrNotAGroup       = errors.New("chat is not a group")
	ErrNoQRCode        = errors.New("no qr code available")

	ErrSendFailed           = errors.New("message send failed")
	ErrGroupCreateFailed    = errors.New("group creation failed")
	ErrSettingsUpdateFailed = errors.New("group settings update failed")
	ErrParticipantsFailed   = errors.New("participant update failed")
	ErrInviteLinkFailed     = errors.New("invite link request failed")
	ErrRevokeFailed         = errors.New("invite link revocation failed")
)
