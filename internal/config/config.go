package config

import (
	"os"
	"strconv"
	"time"
)

// Getenv returns the value of the environment variable or the default.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvInt returns the environment variable parsed as an int or the default.
func GetenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetenvDuration returns the environment variable parsed as a duration or the default.
func GetenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// MySQLDSN builds a DSN for the go-sql-driver from the usual connection parts.
func MySQLDSN(user, pass, host, port, dbname string) string {
	return user + ":" + pass + "@tcp(" + host + ":" + port + ")/" + dbname + "?parseTime=true"
}
