package discord

import "github.com/bwmarrin/discordgo"

// ArchiveAfterOneDay is the thread auto-archive duration in minutes.
const ArchiveAfterOneDay = 1440

// Embed colours.
const (
	ColorBlurple = 0x5865F2
	ColorGreen   = 0x57F287
	ColorRed     = 0xFF0000
)

// InteractionTypeComponent marks a message component interaction.
const InteractionTypeComponent = int(discordgo.InteractionMessageComponent)

// DefaultIntents covers guild thread messages and their content.
const DefaultIntents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent

// CreateTicketCustomID identifies the category select menu.
const CreateTicketCustomID = "create-ticket"

// User is the part of a Discord user the bridge reads.
type User struct {
	ID         string
	Username   string
	GlobalName string
	Avatar     string
	Bot        bool
}

// DisplayName prefers the global display name over the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Member is a guild member.
type Member struct {
	User  *User
	Nick  string
	Roles []string
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, role := range m.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// Message is a received message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Author    User
	Member    *Member
	Content   string
}

// InteractionData carries the component payload of an interaction.
type InteractionData struct {
	CustomID string
	Values   []string
}

// Interaction is a component interaction.
type Interaction struct {
	ID        string
	Type      int
	Token     string
	GuildID   string
	ChannelID string
	Member    *Member
	User      *User
	Data      InteractionData
}

// Invoker returns the user that triggered the interaction.
func (i Interaction) Invoker() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func userFrom(u *discordgo.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Username: u.Username, GlobalName: u.GlobalName, Avatar: u.Avatar, Bot: u.Bot}
}

func memberFrom(m *discordgo.Member) *Member {
	if m == nil {
		return nil
	}
	return &Member{User: userFrom(m.User), Nick: m.Nick, Roles: m.Roles}
}

func messageFrom(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Member:    memberFrom(m.Member),
		Content:   m.Content,
	}
	if author := userFrom(m.Author); author != nil {
		msg.Author = *author
	}
	return msg
}

// interactionFrom converts component interactions; other kinds report false.
func interactionFrom(i *discordgo.Interaction) (Interaction, bool) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return Interaction{}, false
	}
	data := i.MessageComponentData()
	return Interaction{
		ID:        i.ID,
		Type:      int(i.Type),
		Token:     i.Token,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Member:    memberFrom(i.Member),
		User:      userFrom(i.User),
		Data:      InteractionData{CustomID: data.CustomID, Values: data.Values},
	}, true
}
