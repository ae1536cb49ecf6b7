package config

import "os"

type Config struct {
	Port                    string
	PGStayDBHost            string
	PGStayDBPort            string
	PropertyCacheHost       string
	PropertyCachePort       string
	JaegerAddress           string
	NotificationServiceHost string
	NotificationServicePort string
}

func NewConfig() *Config {
	return &Config{
		Port:                    os.Getenv("PGSTAY_SERVICE_PORT"),
		PGStayDBHost:            os.Getenv("PGSTAY_DB_HOST"),
		PGStayDBPort:            os.Getenv("PGSTAY_DB_PORT"),
		PropertyCacheHost:       os.Getenv("PROPERTY_CACHE_HOST"),
		PropertyCachePort:       os.Getenv("PROPERTY_CACHE_PORT"),
		JaegerAddress:           os.Getenv("JAEGER_ADDRESS"),
		NotificationServiceHost: os.Getenv("NOTIFICATION_SERVICE_HOST"),
		NotificationServicePort: os.Getenv("NOTIFICATION_SERVICE_PORT"),
	}
}
