// Package dbtest opens throwaway SQLite databases carrying the TMS schema so
// repository and service tests run without Postgres.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/tms-backend/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// Open returns a fresh in-memory database with every table created and
// foreign keys enforced. The connection pool is pinned to a single connection
// so transactions and plain queries see the same in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbSeq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v\n%s", err, stmt)
		}
	}
	return conn
}

// NewClient wraps Open in a *db.Client for services that need transactions.
func NewClient(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL,
  middle_name TEXT,
  last_name TEXT NOT NULL,
  id_number TEXT,
  contact_number TEXT,
  whatsapp TEXT,
  address TEXT,
  password_hash TEXT,
  auth_code_hash TEXT,
  auth_code_expires_at DATETIME,
  role TEXT NOT NULL,
  permissions TEXT NOT NULL DEFAULT '{}',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX users_email_key ON users (lower(email))`,
	`CREATE TABLE clients (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  middle_name TEXT,
  last_name TEXT NOT NULL,
  id_number TEXT NOT NULL,
  address TEXT NOT NULL,
  contact_numbers TEXT NOT NULL DEFAULT '{}',
  whatsapp TEXT NOT NULL DEFAULT '{}',
  emails TEXT NOT NULL DEFAULT '{}',
  potential_contact_numbers INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  created_by_id TEXT REFERENCES users(id),
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE syndicates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE client_syndicates (
  client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
  syndicate_id TEXT NOT NULL REFERENCES syndicates(id) ON DELETE CASCADE,
  PRIMARY KEY (client_id, syndicate_id)
)`,
	`CREATE TABLE sites (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE areas (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  site_id TEXT NOT NULL REFERENCES sites(id),
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE loadbays (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  site_id TEXT NOT NULL REFERENCES sites(id),
  latitude REAL,
  longitude REAL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE shafts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  area_id TEXT NOT NULL REFERENCES areas(id),
  client_id TEXT NOT NULL REFERENCES clients(id),
  latitude REAL,
  longitude REAL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE equipment_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE equipment (
  id TEXT PRIMARY KEY,
  description TEXT,
  category TEXT NOT NULL,
  make TEXT,
  model TEXT,
  year INTEGER,
  registration_number TEXT,
  capacity TEXT,
  capacity_unit TEXT,
  type_id TEXT NOT NULL REFERENCES equipment_types(id),
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE maintenance_records (
  id TEXT PRIMARY KEY,
  equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
  description TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME,
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE telematics (
  id TEXT PRIMARY KEY,
  equipment_id TEXT NOT NULL UNIQUE REFERENCES equipment(id) ON DELETE CASCADE,
  current_location TEXT,
  fuel_level TEXT,
  kilometres_travelled TEXT NOT NULL,
  tons_relocated TEXT,
  last_updated DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE jobs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  job_type TEXT NOT NULL,
  priority TEXT NOT NULL,
  site_classification TEXT NOT NULL,
  status TEXT NOT NULL,
  assigned_driver_id TEXT REFERENCES users(id),
  requester_id TEXT REFERENCES users(id),
  shaft_id TEXT NOT NULL REFERENCES shafts(id),
  client_id TEXT NOT NULL REFERENCES clients(id),
  loadbay_id TEXT REFERENCES loadbays(id),
  estimated_tonnage TEXT,
  location TEXT,
  completion_proof TEXT,
  preferred_collection_time TEXT,
  picked_up_at DATETIME,
  dropped_off_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE job_comments (
  id TEXT PRIMARY KEY,
  job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  author_id TEXT NOT NULL REFERENCES users(id),
  content TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE procedures (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  type TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE questions (
  id TEXT PRIMARY KEY,
  procedure_id TEXT NOT NULL REFERENCES procedures(id) ON DELETE CASCADE,
  text TEXT NOT NULL,
  answer_type TEXT NOT NULL,
  type TEXT NOT NULL,
  choices TEXT,
  question_order INTEGER NOT NULL,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE executions (
  id TEXT PRIMARY KEY,
  procedure_id TEXT NOT NULL REFERENCES procedures(id),
  user_id TEXT NOT NULL REFERENCES users(id),
  responses TEXT NOT NULL,
  status TEXT NOT NULL,
  start_time DATETIME NOT NULL,
  end_time DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE exceptions (
  id TEXT PRIMARY KEY,
  execution_id TEXT NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
  description TEXT NOT NULL,
  evidence TEXT NOT NULL,
  action_taken TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE daily_plans (
  id TEXT PRIMARY KEY,
  date DATETIME NOT NULL,
  status TEXT NOT NULL,
  created_by_id TEXT NOT NULL REFERENCES users(id),
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE plan_assignments (
  id TEXT PRIMARY KEY,
  plan_id TEXT NOT NULL REFERENCES daily_plans(id) ON DELETE CASCADE,
  equipment_id TEXT NOT NULL REFERENCES equipment(id),
  job_id TEXT NOT NULL REFERENCES jobs(id),
  assignment_order INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT plan_assignments_plan_order_key UNIQUE (plan_id, assignment_order)
)`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	`CREATE TABLE outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
)`,
}
