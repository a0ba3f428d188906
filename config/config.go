package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS           = ""             // e.g. "example.com,example2.com"
	MYSQL_DSN             = ""             // MySQL will be used if this is set
	SQLITE_FILE           = "organizer.db" // SQLite will be used if MYSQL_DSN is not configured
	BIND_ADDRESS          = "0.0.0.0:8080"
	TMP_DIR               = "/tmp" // Used for temporary copies handed to exiftool
	DEBUG_MODE            = true
	THUMB_MAX_SIZE        = 300 // Longer edge of the stored preview, in pixels
	THUMB_QUALITY         = 70  // JPEG quality of previews
	DEFAULT_TAG_COLOR     = "#FF6200EE"
	IMPORT_DIR            = ""   // Inbox directory watched for new files (share target). Disabled if empty
	CONSOLIDATE_INTERVAL  = 3600 // Seconds between consolidation checks
	PROCESSING_INTERVAL   = 30   // Seconds to sleep when there is nothing to process
	EXIFTOOL              = true // Read EXIF dates with exiftool, if the binary is available
	PREVIEW_CACHE_MINUTES = 10   // Custom-size previews are cached in memory for this long
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvInt("THUMB_MAX_SIZE", &THUMB_MAX_SIZE)
	readEnvInt("THUMB_QUALITY", &THUMB_QUALITY)
	readEnvString("DEFAULT_TAG_COLOR", &DEFAULT_TAG_COLOR)
	readEnvString("IMPORT_DIR", &IMPORT_DIR)
	readEnvInt("CONSOLIDATE_INTERVAL", &CONSOLIDATE_INTERVAL)
	readEnvInt("PROCESSING_INTERVAL", &PROCESSING_INTERVAL)
	readEnvBool("EXIFTOOL", &EXIFTOOL)
	readEnvInt("PREVIEW_CACHE_MINUTES", &PREVIEW_CACHE_MINUTES)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return
	}
	*value = i
}
