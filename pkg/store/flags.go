package store

import (
	"time"

	"github.com/Altinn/dialogporten-utils/pkg/conf"
)

var (
	// ConnStringFlag is the libpq connection string passed verbatim to psql.
	ConnStringFlag = conf.NewStringFlag(
		"pg_connection_string",
		"PostgreSQL connection string passed to psql",
		"",
	)

	// PsqlPathFlag points at the psql binary.
	PsqlPathFlag = conf.NewStringFlag(
		"psql_path",
		"Path to the psql binary",
		"psql",
	)

	// QueryTimeoutFlag bounds every single psql invocation.
	QueryTimeoutFlag = conf.NewDurationFlag(
		"query_timeout",
		"Timeout for a single psql invocation",
		30*time.Second,
	)
)
