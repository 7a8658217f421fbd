package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of schema migrations for the local
// database. Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL REFERENCES users(id),
	recipient_id TEXT NOT NULL REFERENCES users(id),
	body         TEXT NOT NULL,
	sent_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS volcano_alerts (
	id          TEXT PRIMARY KEY,
	level       TEXT NOT NULL DEFAULT 'normal',
	description TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	change_id  TEXT NOT NULL,
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	is_read    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_pair ON chat_messages(sender_id, recipient_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_sent_at ON chat_messages(sent_at);
CREATE INDEX IF NOT EXISTS idx_volcano_alerts_updated_at ON volcano_alerts(updated_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS community_notices (
	id         TEXT PRIMARY KEY,
	author_id  TEXT NOT NULL REFERENCES users(id),
	body       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS meeting_points (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	capacity     INTEGER NOT NULL DEFAULT 0,
	safety_level INTEGER NOT NULL DEFAULT 3 CHECK(safety_level BETWEEN 1 AND 5),
	walk_minutes INTEGER NOT NULL DEFAULT 0,
	occupied     INTEGER NOT NULL DEFAULT 0 CHECK(occupied IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_community_notices_created ON community_notices(status, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

// postgresMigrations mirrors sqliteMigrations for the hosted backend and
// additionally installs the triggers that publish row changes on the
// realtime channel consumed by the feed package.
var postgresMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL REFERENCES users(id),
	recipient_id TEXT NOT NULL REFERENCES users(id),
	body         TEXT NOT NULL,
	sent_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS volcano_alerts (
	id          TEXT PRIMARY KEY,
	level       TEXT NOT NULL DEFAULT 'normal',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	change_id  TEXT NOT NULL,
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	is_read    INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_pair ON chat_messages(sender_id, recipient_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_sent_at ON chat_messages(sent_at);
CREATE INDEX IF NOT EXISTS idx_volcano_alerts_updated_at ON volcano_alerts(updated_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read);

CREATE OR REPLACE FUNCTION vulcania_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('vulcania_changes', json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'record', row_to_json(NEW)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS chat_messages_notify ON chat_messages;
CREATE TRIGGER chat_messages_notify AFTER INSERT ON chat_messages
	FOR EACH ROW EXECUTE FUNCTION vulcania_notify_change();

DROP TRIGGER IF EXISTS volcano_alerts_notify ON volcano_alerts;
CREATE TRIGGER volcano_alerts_notify AFTER INSERT OR UPDATE ON volcano_alerts
	FOR EACH ROW EXECUTE FUNCTION vulcania_notify_change();

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS community_notices (
	id         TEXT PRIMARY KEY,
	author_id  TEXT NOT NULL REFERENCES users(id),
	body       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS meeting_points (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	capacity     INTEGER NOT NULL DEFAULT 0,
	safety_level INTEGER NOT NULL DEFAULT 3 CHECK(safety_level BETWEEN 1 AND 5),
	walk_minutes INTEGER NOT NULL DEFAULT 0,
	occupied     INTEGER NOT NULL DEFAULT 0 CHECK(occupied IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_community_notices_created ON community_notices(status, created_at);

DROP TRIGGER IF EXISTS community_notices_notify ON community_notices;
CREATE TRIGGER community_notices_notify AFTER INSERT ON community_notices
	FOR EACH ROW EXECUTE FUNCTION vulcania_notify_change();

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
ALTER TABLE chat_messages ALTER COLUMN sent_at SET DEFAULT now();

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
