package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/ghost")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RABBITMQ_DSN", "amqp://localhost")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "5000" || cfg.JWT.Expiration != 24 || cfg.RabbitMQ.Queue != "email_queue" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Security.MaxLoginAttempts != 5 || cfg.Security.LockDuration != 7200 {
		t.Fatalf("unexpected lockout defaults: %+v", cfg.Security)
	}
	if cfg.IsProduction() {
		t.Fatal("default environment should not be production")
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RABBITMQ_DSN", "amqp://localhost")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for an empty DATABASE_DSN")
	}
}
