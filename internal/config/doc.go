// Package config loads bookshelf settings from a TOML file and the environment.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bookshelf/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. Apply BOOKSHELF_* environment overrides, including any set by a .env
//     file in the working directory
//
// # Default Values
//
//   - Config file: ~/.config/bookshelf/config.toml
//   - API root: http://localhost:4730
//   - Page size: 10
//   - Search debounce: 300ms
//   - Request timeout: 10s
//   - Request rate: 10 per second
//   - Log file: ~/.local/state/bookshelf/bookshelf.log
//
// # TOML Format
//
//	api_url = "http://localhost:4730"
//	page_size = 10
//	debounce_ms = 300
//	request_timeout = "10s"
//	requests_per_second = 10
//	log_file = "~/.local/state/bookshelf/bookshelf.log"
//
// Every field is optional. Tilde expansion is performed for log_file.
//
// # Environment
//
//   - BOOKSHELF_API_URL replaces api_url
//   - BOOKSHELF_PAGE_SIZE replaces page_size
//   - BOOKSHELF_LOG_FILE replaces log_file
//
// The .env file is read with godotenv and never overrides variables that are
// already set in the process environment.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unparseable durations
//   - A page size outside 1..100 or a malformed BOOKSHELF_PAGE_SIZE
//
// Missing config files are NOT an error.
package config
