package constants

import "time"

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceJWT    RequestSource = "JWT"
	RequestSourceAPIKey RequestSource = "API_KEY"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixFrequencyID   CachePrefix = "FREQ_ID_"
	CachePrefixFrequencySlug CachePrefix = "FREQ_SLUG_"
)

const (
	// DefaultMaxParticipants applies when a frequency is created without a limit.
	DefaultMaxParticipants = 1000

	// MessagePageSize caps every message listing.
	MessagePageSize = 50

	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultInviteTTL     = 7 * 24 * time.Hour
	DefaultInviteMaxUses = 1
	InviteTokenLength    = 16

	FrequencyCacheTTL = 10 * time.Minute

	// DefaultRateLimitIdleTTL evicts per-client buckets nobody has used lately.
	DefaultRateLimitIdleTTL = 10 * time.Minute
)

// Audit action types
const (
	AuditFrequencyCreated = "FREQUENCY_CREATED"
	AuditFrequencyDeleted = "FREQUENCY_DELETED"
	AuditMemberRole       = "MEMBERSHIP_ROLE_CHANGED"
	AuditMemberBan        = "MEMBERSHIP_BAN_CHANGED"
	AuditMemberMute       = "MEMBERSHIP_MUTE_CHANGED"
	AuditInviteRedeemed   = "INVITE_REDEEMED"
	AuditInviteDeleted    = "INVITE_DELETED"
	AuditMessageDeleted   = "MESSAGE_DELETED"
	AuditUserDeleted      = "USER_DELETED"
)
