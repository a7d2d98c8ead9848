// Package config loads the tap's connection and runtime settings.
//
// Settings come from a JSON (or YAML) file and can be overridden through
// TAP_REDSHIFT_* environment variables, e.g. TAP_REDSHIFT_PASSWORD. String
// values may also reference environment variables with ${VAR_NAME}.
//
//	cfg, err := config.Load("config.json")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.SchemaName())
//
// Required keys are host, port, dbname, user and password. The schema to
// discover defaults to table_schema, then "public".
package config
