package infrastructure_test

import (
	"testing"

	"github.com/JaimeStill/certifier/internal/config"
	"github.com/JaimeStill/certifier/internal/infrastructure"
	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/pkg/database"
	"github.com/JaimeStill/certifier/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "certifier",
			User:            "certifier",
			Password:        "certifier",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "packages",
			ConnectionString: azuriteConnString,
			Prefix:           "runs",
		},
		Providers: providers.Config{
			AvailabilityTTL: "5m",
			Timeout:         "30s",
			Backends: []providers.BackendConfig{
				{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.3-70b-versatile", APIKey: "key"},
				{Name: "nvidia", BaseURL: "https://integrate.api.nvidia.com/v1", Model: "nemotron"},
			},
		},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Providers == nil {
		t.Fatal("Providers is nil")
	}

	names := infra.Providers.Registry().Names()
	if len(names) != 1 || names[0] != "groq" {
		t.Errorf("registered providers: got %v, want [groq]", names)
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := infra.Database.Connection()
	if conn == nil {
		t.Fatal("Database.Connection() returned nil")
	}
	conn.Close()
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.New(cfg)
	if err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}
