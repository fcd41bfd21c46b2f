package constants

const (
	MsgUserNotFound        = "User not found"
	MsgOwnerNotFound       = "Owner not found"
	MsgInviterNotFound     = "Inviter not found"
	MsgAuthorNotFound      = "Author not found"
	MsgFrequencyNotFound   = "Frequency not found"
	MsgMembershipNotFound  = "Membership not found"
	MsgInviteNotFound      = "Invite not found"
	MsgMessageNotFound     = "Message not found"
	MsgReplyTargetNotFound = "Reply-to message not found"

	MsgUsernameTaken     = "Username already exists"
	MsgUserExists        = "User already exists"
	MsgRoleNotFound      = "Role not found"
	MsgEmailTaken        = "Email already exists"
	MsgSlugTaken         = "Slug already exists"
	MsgAlreadyMember     = "User is already a member"
	MsgStaleWrite        = "Record was modified concurrently, retry the request"
	MsgFrequencyFull     = "Frequency has reached maximum participants"
	MsgLastOwnerLeave    = "Cannot leave: frequency must have at least one owner"
	MsgLastOwnerDemote   = "Cannot change role: frequency must have at least one owner"
	MsgUserOwnsFreqs     = "User still owns frequencies; transfer or delete them first"
	MsgInviteInvalid     = "Invite is expired or maxed out"
	MsgEditDeleted       = "Cannot edit deleted message"
	MsgNotMember         = "User is not a member of this frequency"
	MsgOnlyMembersInvite = "Only members can create invites"
	MsgOnlyAuthorEdit    = "Only the author can edit this message"
	MsgOnlyAuthorDelete  = "Only the author can delete this message"
	MsgInsufficientRole  = "Insufficient role in this frequency"

	MsgInternal     = "Internal server error"
	MsgUnauthorized = "Unauthorized"
)
