// Package documents implementa los repositorios del dominio sobre un docstore.Store,
// así el mismo código sirve para memoria, Postgres y SQLite.
package documents

const (
	colUsers      = "users"
	colUsernames  = "usernames" // id = username, data = {userId}
	colPills      = "pills"
	colCategories = "categories"
	colSchedules  = "schedules"
	colScans      = "scans"
)
