package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS drivers (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    phone         TEXT NOT NULL DEFAULT '',
    vehicle       TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS shifts (
    id                TEXT PRIMARY KEY,
    driver_id         TEXT NOT NULL REFERENCES drivers(id),
    status            TEXT NOT NULL DEFAULT 'active',
    start_time        TIMESTAMPTZ NOT NULL,
    end_time          TIMESTAMPTZ,
    start_lat         DOUBLE PRECISION NOT NULL DEFAULT 0,
    start_lng         DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
    delivery_count    INTEGER NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_shifts_driver_status ON shifts(driver_id, status);

CREATE TABLE IF NOT EXISTS shift_breaks (
    id         BIGSERIAL PRIMARY KEY,
    shift_id   TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
    start_time TIMESTAMPTZ NOT NULL,
    end_time   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS deliveries (
    id              TEXT PRIMARY KEY,
    driver_id       TEXT NOT NULL REFERENCES drivers(id),
    order_number    TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'assigned',
    pickup_address  TEXT NOT NULL DEFAULT '',
    pickup_lat      DOUBLE PRECISION NOT NULL DEFAULT 0,
    pickup_lng      DOUBLE PRECISION NOT NULL DEFAULT 0,
    dropoff_address TEXT NOT NULL DEFAULT '',
    dropoff_lat     DOUBLE PRECISION NOT NULL DEFAULT 0,
    dropoff_lng     DOUBLE PRECISION NOT NULL DEFAULT 0,
    eta             TIMESTAMPTZ,
    archived        BOOLEAN NOT NULL DEFAULT FALSE,
    assigned_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deliveries_driver ON deliveries(driver_id, archived);

CREATE TABLE IF NOT EXISTS route_points (
    id          BIGSERIAL PRIMARY KEY,
    delivery_id TEXT NOT NULL REFERENCES deliveries(id) ON DELETE CASCADE,
    lat         DOUBLE PRECISION NOT NULL,
    lng         DOUBLE PRECISION NOT NULL,
    accuracy_m  DOUBLE PRECISION NOT NULL DEFAULT 0,
    speed_kmh   DOUBLE PRECISION NOT NULL DEFAULT 0,
    heading     DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_moving   BOOLEAN NOT NULL DEFAULT FALSE,
    captured_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS queued_updates (
    id         BIGSERIAL PRIMARY KEY,
    driver_id  TEXT NOT NULL,
    kind       TEXT NOT NULL,
    payload    TEXT NOT NULL,
    attempts   INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    acked_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_queue_pending ON queued_updates(driver_id, acked_at);
`
