package sqlite

// schema is applied on every open; all statements are idempotent
const schema = `
CREATE TABLE IF NOT EXISTS constraints (
	uid            TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'proposed',
	record         TEXT NOT NULL,
	archive_reason TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS constraint_topics (
	uid   TEXT NOT NULL REFERENCES constraints(uid) ON DELETE CASCADE,
	topic TEXT NOT NULL,
	PRIMARY KEY (uid, topic)
);

CREATE INDEX IF NOT EXISTS idx_constraints_status ON constraints(status);
CREATE INDEX IF NOT EXISTS idx_constraints_name ON constraints(name);
CREATE INDEX IF NOT EXISTS idx_constraints_updated ON constraints(updated_at);
CREATE INDEX IF NOT EXISTS idx_constraint_topics_topic ON constraint_topics(topic);
`
