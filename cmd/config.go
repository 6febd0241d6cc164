package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// DBConfig wraps up all of the DB configuration
type DBConfig struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

// SMTPConfig wraps up all of the smtp configuration
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	Sender   string
	FakeSMTP bool
}

// ServiceConfig defines all of the batch loader service configuration parameters
type ServiceConfig struct {
	Port       int
	DB         DBConfig
	SMTP       SMTPConfig
	StorageDir string
	SolrURL    string
	JWTKey     string
	ProcessOCR bool
}

func envDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// LoadConfiguration will load the service configuration from a .env file (when
// present) and the commandline, and return a pointer to it. Any failures are fatal.
func LoadConfiguration() *ServiceConfig {
	log.Printf("INFO: loading configuration...")
	if err := godotenv.Load(); err == nil {
		log.Printf("INFO: loaded settings from .env")
	}

	var cfg ServiceConfig
	flag.IntVar(&cfg.Port, "port", 8180, "API service port (default 8180)")

	flag.StringVar(&cfg.StorageDir, "storage", envDefault("NDNP_STORAGE", ""), "Batch storage directory")
	flag.StringVar(&cfg.SolrURL, "solr", envDefault("NDNP_SOLR", ""), "Solr core URL")
	flag.StringVar(&cfg.JWTKey, "jwtkey", envDefault("NDNP_JWT_KEY", ""), "JWT signing key for mutating endpoints")
	flag.BoolVar(&cfg.ProcessOCR, "ocr", true, "Extract and index OCR text during batch loads")

	// SMTP
	flag.BoolVar(&cfg.SMTP.FakeSMTP, "stubsmtp", false, "Log email instead of sending (dev mode)")
	flag.StringVar(&cfg.SMTP.Host, "smtphost", envDefault("NDNP_SMTP_HOST", ""), "SMTP Host")
	flag.IntVar(&cfg.SMTP.Port, "smtpport", 0, "SMTP Port")
	flag.StringVar(&cfg.SMTP.User, "smtpuser", "", "SMTP User")
	flag.StringVar(&cfg.SMTP.Pass, "smtppass", "", "SMTP Password")
	flag.StringVar(&cfg.SMTP.Sender, "smtpsender", "ndnp-batch-ws@virginia.edu", "SMTP sender email")

	// DB connection params
	flag.StringVar(&cfg.DB.Host, "dbhost", envDefault("NDNP_DBHOST", ""), "Database host")
	flag.IntVar(&cfg.DB.Port, "dbport", 3306, "Database port")
	flag.StringVar(&cfg.DB.Name, "dbname", envDefault("NDNP_DBNAME", ""), "Database name")
	flag.StringVar(&cfg.DB.User, "dbuser", envDefault("NDNP_DBUSER", ""), "Database user")
	flag.StringVar(&cfg.DB.Pass, "dbpass", envDefault("NDNP_DBPASS", ""), "Database password")

	flag.Parse()

	if cfg.DB.Host == "" {
		log.Fatal("Parameter dbhost is required")
	}
	if cfg.DB.Name == "" {
		log.Fatal("Parameter dbname is required")
	}
	if cfg.DB.User == "" {
		log.Fatal("Parameter dbuser is required")
	}
	if cfg.DB.Pass == "" {
		log.Fatal("Parameter dbpass is required")
	}
	if cfg.StorageDir == "" {
		log.Fatal("Parameter storage is required")
	}
	if cfg.SolrURL == "" {
		log.Fatal("Parameter solr is required")
	}

	log.Printf("[CONFIG] port          = [%d]", cfg.Port)
	log.Printf("[CONFIG] dbhost        = [%s]", cfg.DB.Host)
	log.Printf("[CONFIG] dbport        = [%d]", cfg.DB.Port)
	log.Printf("[CONFIG] dbname        = [%s]", cfg.DB.Name)
	log.Printf("[CONFIG] dbuser        = [%s]", cfg.DB.User)
	log.Printf("[CONFIG] storage       = [%s]", cfg.StorageDir)
	log.Printf("[CONFIG] solr          = [%s]", cfg.SolrURL)
	log.Printf("[CONFIG] ocr           = [%t]", cfg.ProcessOCR)

	if cfg.SMTP.FakeSMTP {
		log.Printf("[CONFIG] fakesmtp      = [true]")
	} else {
		log.Printf("[CONFIG] smtphost      = [%s]", cfg.SMTP.Host)
		log.Printf("[CONFIG] smtpport      = [%d]", cfg.SMTP.Port)
		log.Printf("[CONFIG] smtpuser      = [%s]", cfg.SMTP.User)
		log.Printf("[CONFIG] smtpsender    = [%s]", cfg.SMTP.Sender)
	}

	return &cfg
}
