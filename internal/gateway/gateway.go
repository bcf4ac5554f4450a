// Package gateway defines the capabilities the ticket engine needs from the
// chat platform. Every call is a fallible remote call.
package gateway

import "context"

// PostKind tells the adapter how to render a post in the thread.
type PostKind string

const (
	PostReply      PostKind = "reply"
	PostAssignment PostKind = "assignment"
	PostClosure    PostKind = "closure"
)

// ThreadSpec describes a thread to open for a new ticket.
type ThreadSpec struct {
	ParentChannel  string
	Title          string
	InitialMessage string
	// RequesterID is added to the thread so the requester sees it.
	RequesterID string
}

// Post is a message sent into a ticket thread on behalf of staff.
type Post struct {
	Kind       PostKind
	AuthorID   string
	AuthorName string
	AvatarRef  string
	Content    string
	IsStaff    bool
	// TargetID is the subject of an assignment notice.
	TargetID string
}

// ThreadGateway is the chat platform capability consumed by the engine and
// the authorization boundary.
type ThreadGateway interface {
	CreateThread(ctx context.Context, spec ThreadSpec) (string, error)
	PostMessage(ctx context.Context, threadRef string, post Post) error
	// LockAndArchive is safe to call more than once.
	LockAndArchive(ctx context.Context, threadRef string) error
	ResolveStaffRole(ctx context.Context, userID string) (bool, error)
}
