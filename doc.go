// Package tapredshift extracts data from Amazon Redshift and writes it to
// stdout as a stream of SCHEMA, RECORD, STATE and ACTIVATE_VERSION messages.
//
// A run has one of two modes:
//
//   - Discovery introspects one database schema through information_schema
//     and prints a catalog: one entry per table or view with a JSON Schema
//     per column, key properties and selection metadata.
//   - Sync takes a catalog with the caller's selections plus the state of the
//     previous run, and streams every selected table in catalog order.
//     Incremental tables resume from their bookmarked replication key value.
//     Full-table tables are re-read completely under a new table version.
//
// # Quick Start
//
//	tap-redshift --config config.json --discover > catalog.json
//	# edit catalog.json to select streams and columns
//	tap-redshift --config config.json --catalog catalog.json --state state.json
//
// The config file is JSON:
//
//	{
//	  "host": "example.redshift.amazonaws.com",
//	  "port": 5439,
//	  "dbname": "dev",
//	  "user": "tap",
//	  "password": "${REDSHIFT_PASSWORD}",
//	  "schema": "public",
//	  "start_date": "2020-01-01T00:00:00Z"
//	}
//
// Every key can be overridden with a TAP_REDSHIFT_ prefixed environment
// variable, and ${VAR_NAME} references are expanded.
//
// # Key Packages
//
//	pkg/connector/sources/redshift - Discovery, catalog resolution and sync
//	pkg/catalog                    - Catalog, JSON Schema and metadata types
//	pkg/state                      - Bookmarks and state rebuilding
//	pkg/message                    - Output messages and sinks
//	pkg/config                     - Configuration loading
//	pkg/taperrors                  - Structured error handling
//	pkg/logger                     - Structured logging to stderr
//	pkg/metrics                    - Prometheus metrics and METRIC log lines
//	pkg/observability              - OpenTelemetry tracing
package tapredshift
