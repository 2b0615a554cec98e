package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_batch.sql
var RegisterBatch string

//go:embed queries/lookup_batch.sql
var LookupBatch string

//go:embed queries/update_batch_status.sql
var UpdateBatchStatus string

//go:embed queries/delete_scored_batch.sql
var DeleteScoredBatch string

//go:embed queries/insert_prediction.sql
var InsertPrediction string

//go:embed queries/analyze_scored.sql
var AnalyzeScored string

//go:embed queries/migration_ledger.sql
var MigrationLedger string

//go:embed queries/applied_migrations.sql
var AppliedMigrations string

//go:embed queries/record_migration.sql
var RecordMigration string
