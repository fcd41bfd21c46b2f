package constants

// sqlx queries are written with '?' placeholders and rebound per driver.
const (
	GetStatusByApiKey = `
	SELECT id, label, status, created_at FROM api_keys WHERE id = ?
	`

	InsertApiKey = `
	INSERT INTO api_keys (id, label, status, created_at) VALUES (?, ?, ?, ?)
	`

	RevokeApiKey = `
	UPDATE api_keys SET status = FALSE WHERE id = ?
	`

	InsertAuditLog = `
	INSERT INTO audit_logs (actor_id, action_type, target_type, target_id, data, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	ListAuditLogsByTarget = `
	SELECT id, actor_id, action_type, target_type, target_id, data, created_at
	FROM audit_logs
	WHERE target_type = ? AND target_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
)
