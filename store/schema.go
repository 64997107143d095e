package store

// schemaSQL creates the tables this subsystem relies on. The web app owns
// the canonical schema in production; this DDL exists for standalone
// deployments and tests, and matches the product's column set.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS papers (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	abstract    TEXT NOT NULL DEFAULT '',
	authors     TEXT NOT NULL DEFAULT '[]',
	published   TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	pdf_url     TEXT NOT NULL DEFAULT '',
	categories  TEXT NOT NULL DEFAULT '[]',
	summary     TEXT,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS enrichment_cache (
	paper_id      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	artifact      BLOB,
	content_type  TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	provider      TEXT NOT NULL DEFAULT '',
	generated_at  TEXT NOT NULL DEFAULT '',
	failure_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (paper_id, kind)
);
`

// cacheColumns are the columns the cache path cannot operate without.
// A database missing any of them (schema lagging behind this subsystem)
// puts the store into no-cache mode.
var cacheColumns = []string{
	"paper_id", "kind", "artifact", "content_type",
	"status", "provider", "generated_at", "failure_count",
}
