// Package config loads the dashboard server configuration.
//
// # Configuration Sources
//
// Values are layered, later sources winning:
//
//	1. Default() values
//	2. A YAML file: $STRAK_CONFIG, else config.yaml or configs/config.yaml
//	3. Environment variables
//
// # Environment Variables
//
// Every variable is namespaced STRAK_<SECTION>_<FIELD>:
//
//	STRAK_SERVER_PORT=8050
//	STRAK_LOGGING_LEVEL=debug
//	STRAK_DATA_CATALOG_FILE=datasets.yaml
//	STRAK_DATA_SHEETS_API_KEY=...
//	STRAK_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use Default() directly.
package config
