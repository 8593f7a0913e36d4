// Package config provides configuration management for the bike rental
// dashboard. It loads configuration from several layers, validates it and
// resolves file system paths.
//
// # Configuration Sources
//
// Layers are applied in this order, later layers winning:
//
//	1. Default() values
//	2. YAML file (BIKE_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Optional .env file in the working directory
//	4. BIKE_* environment variables
//
// # Environment Variables
//
// Variables follow the section and field names:
//
//	BIKE_SERVER_PORT=8080
//	BIKE_PATHS_DATA_DIR=/srv/bike/data
//	BIKE_DASHBOARD_LABEL_STRATEGY=demand
//	BIKE_EXPORT_SCHEDULE="0 2 * * *"
//	BIKE_LOGGING_LEVEL=debug
//
// # Validation
//
// Every section carries validator tags; Validate reports all failing fields
// at once.
//
// # Path Management
//
// PathsConfig.Resolve returns absolute paths. Relative entries are anchored
// at BaseDir, or at the executable directory when BaseDir is empty, so the
// binary behaves the same whatever the working directory is.
package config
