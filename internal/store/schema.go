package store

const schemaDDL = `
CREATE TABLE nodes (
  id   TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  label TEXT,
  meta TEXT
);
CREATE TABLE edges (
  id      INTEGER PRIMARY KEY AUTOINCREMENT,
  from_id TEXT NOT NULL,
  to_id   TEXT NOT NULL,
  type    TEXT NOT NULL,
  meta    TEXT,
  UNIQUE(from_id, to_id, type)
);
CREATE INDEX idx_nodes_type ON nodes(type);
CREATE INDEX idx_edges_from ON edges(from_id);
CREATE INDEX idx_edges_to   ON edges(to_id);
`

const dropDDL = `
DROP TABLE IF EXISTS edges;
DROP TABLE IF EXISTS nodes;
`
