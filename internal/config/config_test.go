package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("BATCH_TIMEOUT_SECONDS", "")
	t.Setenv("SNIPPET_MAX_CHARS", "")
	t.Setenv("FIELD_TIMEOUT_SECONDS", "")
	t.Setenv("FIELD_MAX_RETRIES", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected default worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.BatchTimeoutSeconds != 600 {
		t.Fatalf("expected default batch timeout 600, got %d", cfg.BatchTimeoutSeconds)
	}
	if cfg.SnippetMaxChars != 5000 {
		t.Fatalf("expected default snippet cap 5000, got %d", cfg.SnippetMaxChars)
	}
	if cfg.FieldTimeoutSeconds != 60 {
		t.Fatalf("expected default field timeout 60, got %d", cfg.FieldTimeoutSeconds)
	}
	if cfg.FieldMaxRetries != 2 {
		t.Fatalf("expected default field retries 2, got %d", cfg.FieldMaxRetries)
	}
	if cfg.NATSSubject != "kyc.batches" {
		t.Fatalf("expected default subject kyc.batches, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("FIELD_CALLS_PER_SECOND", "0.5")
	t.Setenv("FIELD_SERVICE_MODEL", "custom-model")

	cfg := Load()
	if cfg.WorkerCount != 8 {
		t.Fatalf("expected worker count override, got %d", cfg.WorkerCount)
	}
	if cfg.FieldCallsPerSecond != 0.5 {
		t.Fatalf("expected calls per second 0.5, got %v", cfg.FieldCallsPerSecond)
	}
	if cfg.FieldServiceModel != "custom-model" {
		t.Fatalf("expected model override, got %q", cfg.FieldServiceModel)
	}
}

func TestLoadIgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected fallback worker count 4, got %d", cfg.WorkerCount)
	}
}
