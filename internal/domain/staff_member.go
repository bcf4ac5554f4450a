package domain

// StaffMember is a panel caller that passed the staff predicate. Identities
// come from the chat platform; nothing about staff is persisted here.
type StaffMember struct {
	ID          string
	DisplayName string
	AvatarRef   string
}
