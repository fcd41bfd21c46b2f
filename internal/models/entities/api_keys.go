package entities

import "time"

// ApiKey authenticates a trusted backend client. Requests made with a key
// act on behalf of the user named in the X-User-ID header.
type ApiKey struct {
	ID        string    `db:"id"`
	Label     string    `db:"label"`
	Status    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
