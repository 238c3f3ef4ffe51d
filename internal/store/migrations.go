package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tenants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS roles (
	id             TEXT PRIMARY KEY,
	tenant_id      TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	superadmin     INTEGER NOT NULL DEFAULT 0 CHECK(superadmin IN (0, 1)),
	view_all_tasks INTEGER NOT NULL DEFAULT 0 CHECK(view_all_tasks IN (0, 1)),
	manage_tasks   INTEGER NOT NULL DEFAULT 0 CHECK(manage_tasks IN (0, 1)),
	UNIQUE(tenant_id, name)
);

CREATE TABLE IF NOT EXISTS employees (
	id        TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
	id        TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id    TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	PRIMARY KEY (group_id, employee_id)
);

CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	role_id     TEXT NOT NULL REFERENCES roles(id),
	employee_id TEXT REFERENCES employees(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS api_tokens (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0 CHECK(archived IN (0, 1)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id                   TEXT PRIMARY KEY,
	tenant_id            TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	priority             TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
	due_date             DATETIME,
	project_id           TEXT REFERENCES projects(id) ON DELETE SET NULL,
	status               TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending', 'started_working', 'complete', 'cancel')),
	progress             REAL NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
	started_at           DATETIME,
	assigned_employee_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
	assigned_group_id    TEXT REFERENCES groups(id) ON DELETE SET NULL,
	created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CHECK(assigned_employee_id IS NULL OR assigned_group_id IS NULL)
);

CREATE TABLE IF NOT EXISTS subtasks (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	title        TEXT NOT NULL,
	instructions TEXT NOT NULL DEFAULT '',
	weight       REAL NOT NULL DEFAULT 1 CHECK(weight > 0),
	sort_order   INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending', 'started_working', 'complete', 'cancel')),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL UNIQUE REFERENCES tasks(id) ON DELETE CASCADE,
	tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attachments (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	task_id    TEXT REFERENCES tasks(id) ON DELETE CASCADE,
	file_name  TEXT NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	sender_id       TEXT NOT NULL REFERENCES users(id),
	content         TEXT NOT NULL DEFAULT '',
	kind            TEXT NOT NULL DEFAULT 'text'
		CHECK(kind IN ('text', 'image', 'file', 'audio', 'system')),
	attachment_id   TEXT REFERENCES attachments(id) ON DELETE SET NULL,
	nonce           TEXT,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS message_reads (
	message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	read_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (message_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_tenant ON tasks(tenant_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_employee ON tasks(assigned_employee_id);
CREATE INDEX IF NOT EXISTS idx_tasks_group ON tasks(assigned_group_id);
CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_message_reads_user ON message_reads(user_id);
CREATE INDEX IF NOT EXISTS idx_attachments_task ON attachments(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_dedup
	ON messages(conversation_id, sender_id, nonce)
	WHERE nonce IS NOT NULL;

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
