// Package config provides configuration parsing for pagegen projects.
//
// The configuration is stored in pagegen.json at the project root. Every
// field is optional; a project without pagegen.json uses the defaults.
//
// # Configuration File Structure
//
//	{
//	  "pages": "pages",
//	  "output": "site/pages_gen.go",
//	  "format": "go",
//	  "package": "site",
//	  "home": "Home",
//	  "homeText": "Go Home",
//	  "routes": [
//	    {"path": "/", "identifier": "Home"},
//	    {"path": "/:..segments", "identifier": "NotFound", "params": ["segments"]}
//	  ],
//	  "metrics": {
//	    "textfile": "metrics/pagegen.prom"
//	  },
//	  "publish": {
//	    "s3": {"bucket": "site-artifacts", "prefix": "pages/", "region": "us-east-1"}
//	  },
//	  "preview": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "hotReload": true
//	  }
//	}
//
// Relative paths resolve against the directory containing pagegen.json.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Pages:", cfg.PagesPath())
package config
