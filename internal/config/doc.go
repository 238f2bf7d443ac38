// Package config provides configuration parsing for Nitro projects.
//
// The configuration is stored in nitro.json at the project root. Values
// from a .env file next to it and from NITRO_* environment variables
// override the file.
//
// # Configuration File Structure
//
//	{
//	  "name": "Acme",
//	  "titleSeparator": " - ",
//	  "server": {"host": "localhost", "port": 3000},
//	  "api": {"url": "http://localhost:8080", "statePath": "/api/state"},
//	  "routes": "routes.yaml",
//	  "static": {"dir": "public", "prefix": "/static/"},
//	  "scroll": {
//	    "storage": "redis",
//	    "redis": {"addr": "localhost:6379", "ttl": "24h"}
//	  },
//	  "metrics": true
//	}
//
// # Environment
//
//	NITRO_NAME, NITRO_HOST, NITRO_PORT, NITRO_API_URL, NITRO_STATIC,
//	NITRO_SCROLL_STORAGE, NITRO_REDIS_ADDR, NITRO_REDIS_PASSWORD,
//	NITRO_REDIS_DB, NITRO_METRICS, NITRO_TRACING
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
