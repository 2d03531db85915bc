// Package config loads typed settings from environment variables.
//
// Structs describe their variables with github.com/caarlos0/env tags; a
// .env file in the working directory is applied through
// github.com/joho/godotenv before the first parse. Parsed values are cached
// per struct type, so independent packages can ask for the same settings
// without re-reading the environment.
//
//	type Config struct {
//		HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
//		MaxFileSize string `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10M"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
