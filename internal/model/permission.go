package model

// PermissionState tracks authorization against one external capability.
// It is mutated only by an explicit authorization request or a status
// refresh against the capability, never set directly by application logic.
type PermissionState string

const (
	// PermissionUnknown means no authorization request has been made yet.
	PermissionUnknown PermissionState = "unknown"

	// PermissionAuthorized means the capability granted access.
	PermissionAuthorized PermissionState = "authorized"

	// PermissionDenied means the user refused, or revoked access in the
	// system settings.
	PermissionDenied PermissionState = "denied"

	// PermissionUnavailable means the capability does not exist on this
	// device at all.
	PermissionUnavailable PermissionState = "unavailable"
)
