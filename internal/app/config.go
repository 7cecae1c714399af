package app

import (
	"strings"

	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/utils"
)

type Config struct {
	Port           string
	StorageBackend string // "postgres" or "sqlite"
	SQLitePath     string
	ImportStrict   bool
	RAGThresholds  string
	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	origins := utils.GetEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	return Config{
		Port:           utils.GetEnv("PORT", "8080", log),
		StorageBackend: strings.ToLower(utils.GetEnv("STORAGE_BACKEND", "postgres", log)),
		SQLitePath:     utils.GetEnv("SQLITE_PATH", "statusdeck.db", log),
		ImportStrict:   utils.GetEnvAsBool("IMPORT_STRICT", false, log),
		RAGThresholds:  utils.GetEnv("RAG_THRESHOLDS_PATH", "", log),
		AllowedOrigins: strings.Split(origins, ","),
	}
}
