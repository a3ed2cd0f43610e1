// Package config loads and validates Brewlink configuration.
//
// Precedence is defaults, then the YAML file, then BREWLINK_* env
// overrides, then Validate(). The sections mirror the service's
// moving parts: machine identity and thermal target, link transport
// selection (ble or simulator), telemetry polling, the SQLite store,
// MQTT, InfluxDB, the REST API and logging.
//
// Secrets (MQTT password, InfluxDB token) belong in environment
// variables, not the file; the file itself should be mode 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Machine.Address)
package config
