package migrate

import "embed"

// Embedded carries the SQL migrations inside every binary so deployed
// services do not depend on the source tree layout.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// EmbeddedDir is the directory name inside Embedded.
const EmbeddedDir = "migrations"
