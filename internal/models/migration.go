package models

// Outcome strings reported per customer. Netplay and Maxplayer surface
// their results as text, so the report keeps them as text too; these are
// the values the backend itself produces.
const (
	StatusMigrated     = "Migrado com sucesso"
	StatusNotFound     = "Não encontrado"
	StatusNotRequested = "not_requested" // Maxplayer migration was not asked for
	StatusNotExecuted  = "not_executed"  // skipped because the Netplay step failed
)

// BatchMigration is one batch request: every customer is migrated to the
// same destination server, resolving each customer's current plan to an
// equivalent plan on that server.
type BatchMigration struct {
	Customers     []Customer `json:"customers"`
	ServerID      string     `json:"server_id"`
	ServerName    string     `json:"server_name"`
	WithMaxplayer bool       `json:"with_maxplayer"`
}

// MigrationOutcome is the per-customer result of a batch migration.
// Exactly one outcome is produced per customer, in input order.
type MigrationOutcome struct {
	Username        string `json:"username"`
	MigrationStatus string `json:"migration_status"`
	MaxplayerStatus string `json:"maxplayer_status"`
}
