package platform

import (
	"strconv"
	"time"
)

// Interaction response types.
const (
	ResponseChannelMessage  = 4
	ResponseDeferredMessage = 5
)

// Message flag marking a response visible only to the invoking user.
const FlagEphemeral = 64

// Button styles.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonSuccess   = 3
)

// Interaction types.
const (
	InteractionPing             = 1
	InteractionCommand          = 2
	InteractionMessageComponent = 3
)

// Component types.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

type Member struct {
	User     *User      `json:"user,omitempty"`
	Roles    []string   `json:"roles"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
	GuildID  string     `json:"guild_id,omitempty"`
}

// HasRole reports whether the member carries the given role id.
func (m *Member) HasRole(roleID string) bool {
	if m == nil || roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

type MessageReference struct {
	MessageID string `json:"message_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type Button struct {
	Type     int    `json:"type"`
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

// ActionRow groups up to five buttons on one row.
type ActionRow struct {
	Type       int      `json:"type"`
	Components []Button `json:"components"`
}

// ButtonRow builds a single action row from the given buttons.
func ButtonRow(buttons ...Button) []ActionRow {
	return []ActionRow{{Type: ComponentActionRow, Components: buttons}}
}

type AllowedMentions struct {
	Parse       []string `json:"parse"`
	RepliedUser bool     `json:"replied_user"`
}

// NoMentions suppresses every ping in an outbound message.
func NoMentions() *AllowedMentions {
	return &AllowedMentions{Parse: []string{}, RepliedUser: false}
}

type Message struct {
	ID               string            `json:"id"`
	ChannelID        string            `json:"channel_id"`
	GuildID          string            `json:"guild_id,omitempty"`
	Content          string            `json:"content"`
	Author           User              `json:"author"`
	Embeds           []Embed           `json:"embeds,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
}

// File is an attachment uploaded alongside a message.
type File struct {
	Name     string
	Contents []byte
}

type MessageCreate struct {
	Content          string            `json:"content,omitempty"`
	Embeds           []Embed           `json:"embeds,omitempty"`
	Components       []ActionRow       `json:"components,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
	Files            []File            `json:"-"`
}

type ResponseData struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []Embed          `json:"embeds,omitempty"`
	Components      []ActionRow      `json:"components,omitempty"`
	Flags           int              `json:"flags,omitempty"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
	Files           []File           `json:"-"`
}

type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type CommandOption struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

type InteractionData struct {
	Name     string          `json:"name,omitempty"`
	CustomID string          `json:"custom_id,omitempty"`
	Options  []CommandOption `json:"options,omitempty"`
}

type Interaction struct {
	ID        string           `json:"id"`
	Type      int              `json:"type"`
	Token     string           `json:"token"`
	GuildID   string           `json:"guild_id,omitempty"`
	ChannelID string           `json:"channel_id,omitempty"`
	Member    *Member          `json:"member,omitempty"`
	User      *User            `json:"user,omitempty"`
	Message   *Message         `json:"message,omitempty"`
	Data      *InteractionData `json:"data,omitempty"`
}

// Invoker returns the user behind an interaction regardless of whether it
// arrived in a guild or a DM.
func (i *Interaction) Invoker() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// OptionString returns a named string option, or empty when absent.
func (i *Interaction) OptionString(name string) string {
	if i.Data == nil {
		return ""
	}
	for _, o := range i.Data.Options {
		if o.Name == name {
			if s, ok := o.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// OptionInt returns a named integer option and whether it was present.
func (i *Interaction) OptionInt(name string) (int, bool) {
	if i.Data == nil {
		return 0, false
	}
	for _, o := range i.Data.Options {
		if o.Name == name {
			if f, ok := o.Value.(float64); ok {
				return int(f), true
			}
		}
	}
	return 0, false
}

type CommandOptionSpec struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
	MinValue    *int   `json:"min_value,omitempty"`
	MaxValue    *int   `json:"max_value,omitempty"`
}

// ApplicationCommand is a guild slash-command definition.
type ApplicationCommand struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Options     []CommandOptionSpec `json:"options,omitempty"`
}

const discordEpochMS = 1420070400000

// SnowflakeTime extracts the creation time embedded in a snowflake id.
func SnowflakeTime(id string) time.Time {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}
	}
	ms := int64(n>>22) + discordEpochMS
	return time.UnixMilli(ms).UTC()
}
