package mongo

import "testing"

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.URI != "mongodb://localhost:27017" {
		t.Errorf("URI = %q, want the localhost default", cfg.URI)
	}
	if cfg.Database != "petbabel" {
		t.Errorf("Database = %q, want petbabel", cfg.Database)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db.internal:27017")
	t.Setenv("MONGODB_DATABASE", "petbabel_test")

	cfg := NewConfigFromEnv().withDefaults()
	if cfg.URI != "mongodb://db.internal:27017" {
		t.Errorf("URI = %q, want the env override", cfg.URI)
	}
	if cfg.Database != "petbabel_test" {
		t.Errorf("Database = %q, want petbabel_test", cfg.Database)
	}
}
