package constant

// Message roles as stored and as sent upstream.
const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// ConversationIdLatest resolves to the caller's most recently active
// conversation, or creates one if none exists.
const ConversationIdLatest = "latest"

// Defaults for the conversation store and the chat handler. All of these
// are overridable through config.
const (
	DefaultMaxMessageLen        = 4000
	DefaultMaxConversations     = 100
	DefaultMessageViewCap       = 1000
	DefaultConversationPageSize = 50
	TitlePrefixLen              = 50
)
