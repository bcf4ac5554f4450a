package dto

// StaffResponse describes the authenticated staff member.
type StaffResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}
