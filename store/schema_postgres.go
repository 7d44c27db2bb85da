package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS equipment (
    id              TEXT PRIMARY KEY,
    number          TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL DEFAULT '',
    category        TEXT NOT NULL DEFAULT '',
    location        TEXT NOT NULL DEFAULT '',
    manufacturer    TEXT NOT NULL DEFAULT '',
    model           TEXT NOT NULL DEFAULT '',
    specifications  TEXT NOT NULL DEFAULT '',
    installed_at    TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_equipment_category ON equipment(category);

CREATE TABLE IF NOT EXISTS equipment_status (
    id                  TEXT PRIMARY KEY,
    equipment_id        TEXT NOT NULL UNIQUE REFERENCES equipment(id),
    status              TEXT NOT NULL DEFAULT 'running',
    status_reason       TEXT NOT NULL DEFAULT '',
    changed_by          TEXT NOT NULL DEFAULT '',
    status_changed_at   TIMESTAMPTZ,
    last_maintenance_at TIMESTAMPTZ,
    next_maintenance_at TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS breakdown_reports (
    id            TEXT PRIMARY KEY,
    equipment_id  TEXT NOT NULL REFERENCES equipment(id),
    title         TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    symptoms      TEXT NOT NULL DEFAULT '',
    urgency       TEXT NOT NULL DEFAULT 'medium',
    issue_type    TEXT NOT NULL DEFAULT 'mechanical',
    status        TEXT NOT NULL DEFAULT 'reported',
    reported_by   TEXT NOT NULL DEFAULT '',
    assigned_to   TEXT NOT NULL DEFAULT '',
    occurred_at   TIMESTAMPTZ,
    resolved_at   TIMESTAMPTZ,
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_breakdowns_equipment ON breakdown_reports(equipment_id);
CREATE INDEX IF NOT EXISTS idx_breakdowns_status ON breakdown_reports(status);
`
