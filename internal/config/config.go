package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost string
	RedisPort string

	SessionSecret string
	GinMode       string

	// Scheduler trigger time, local to Timezone.
	SchedulerHour   int
	SchedulerMinute int
	Timezone        string
}

func Load() *Config {
	// .env is optional; real deployments set environment variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	return &Config{
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "workflow"),
		DBPassword:      getEnv("DB_PASSWORD", "workflow"),
		DBName:          getEnv("DB_NAME", "workflow"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		SessionSecret:   getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		SchedulerHour:   getEnvInt("SCHEDULER_HOUR", 0),
		SchedulerMinute: getEnvInt("SCHEDULER_MINUTE", 5),
		Timezone:        getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
