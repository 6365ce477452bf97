package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS drivers (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    phone         TEXT NOT NULL DEFAULT '',
    vehicle       TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS shifts (
    id                TEXT PRIMARY KEY,
    driver_id         TEXT NOT NULL REFERENCES drivers(id),
    status            TEXT NOT NULL DEFAULT 'active',
    start_time        TEXT NOT NULL,
    end_time          TEXT,
    start_lat         REAL NOT NULL DEFAULT 0,
    start_lng         REAL NOT NULL DEFAULT 0,
    total_distance_km REAL NOT NULL DEFAULT 0,
    delivery_count    INTEGER NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_shifts_driver_status ON shifts(driver_id, status);

CREATE TABLE IF NOT EXISTS shift_breaks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    shift_id   TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
    start_time TEXT NOT NULL,
    end_time   TEXT
);

CREATE TABLE IF NOT EXISTS deliveries (
    id              TEXT PRIMARY KEY,
    driver_id       TEXT NOT NULL REFERENCES drivers(id),
    order_number    TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'assigned',
    pickup_address  TEXT NOT NULL DEFAULT '',
    pickup_lat      REAL NOT NULL DEFAULT 0,
    pickup_lng      REAL NOT NULL DEFAULT 0,
    dropoff_address TEXT NOT NULL DEFAULT '',
    dropoff_lat     REAL NOT NULL DEFAULT 0,
    dropoff_lng     REAL NOT NULL DEFAULT 0,
    eta             TEXT,
    archived        INTEGER NOT NULL DEFAULT 0,
    assigned_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_deliveries_driver ON deliveries(driver_id, archived);

CREATE TABLE IF NOT EXISTS route_points (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    delivery_id TEXT NOT NULL REFERENCES deliveries(id) ON DELETE CASCADE,
    lat         REAL NOT NULL,
    lng         REAL NOT NULL,
    accuracy_m  REAL NOT NULL DEFAULT 0,
    speed_kmh   REAL NOT NULL DEFAULT 0,
    heading     REAL NOT NULL DEFAULT 0,
    is_moving   INTEGER NOT NULL DEFAULT 0,
    captured_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS queued_updates (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    driver_id  TEXT NOT NULL,
    kind       TEXT NOT NULL,
    payload    TEXT NOT NULL,
    attempts   INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    acked_at   TEXT
);

CREATE INDEX IF NOT EXISTS idx_queue_pending ON queued_updates(driver_id, acked_at);
`
