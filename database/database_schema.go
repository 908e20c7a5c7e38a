package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS position (
		id text NOT NULL PRIMARY KEY,
		symbol text NOT NULL,
		strategy text NOT NULL,
		entry text NOT NULL,
		stop text NOT NULL,
		target text NOT NULL,
		quantity integer NOT NULL,
		state text NOT NULL,
		request_time TIMESTAMP NOT NULL,
		open_time TIMESTAMP NOT NULL,
		close_time TIMESTAMP NOT NULL,
		close_reason text NOT NULL DEFAULT '',
		close_price text NOT NULL DEFAULT '0',
		realized_pnl text NOT NULL DEFAULT '0',
		last_price text NOT NULL DEFAULT '0',
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS position_state_idx ON position (state);`,
	`CREATE TABLE IF NOT EXISTS audit_event (
		id integer NOT NULL PRIMARY KEY AUTOINCREMENT,
		type text NOT NULL,
		symbol text NOT NULL DEFAULT '',
		identifier text NOT NULL DEFAULT '',
		message text NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS audit_event_type_idx ON audit_event (type, created_at);`,
}
