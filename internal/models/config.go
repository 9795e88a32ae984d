package models

import (
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerAddr           string `yaml:"server_addr"`
	CatalogDatabaseURL   string `yaml:"catalog_database_url"`
	ReportingDatabaseURL string `yaml:"reporting_database_url"`
	KafkaBroker          string `yaml:"kafka_broker"`
	KafkaTopic           string `yaml:"kafka_topic"`
	S3Bucket             string `yaml:"s3_bucket"`
	S3Region             string `yaml:"s3_region"`
	Workers              int    `yaml:"workers"`
	BatchName            string `yaml:"batch_name"`
	ListName             string `yaml:"list_name"`
	CreatedByUserID      int64  `yaml:"created_by_user_id"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 25
	}
	if cfg.BatchName == "" {
		cfg.BatchName = "OPEN AI Images"
	}
	if cfg.ListName == "" {
		cfg.ListName = "imgv_list_wow_uk"
	}
	return &cfg, nil
}
