// README: Embedded SQL migrations applied by goose at startup and in DB-backed tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
