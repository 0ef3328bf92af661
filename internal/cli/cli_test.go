package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/eqverify/internal/model"
	"github.com/ppiankov/eqverify/internal/prove"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := model.DefaultConfig()
	if cfg.Prover.Timeout != want.Prover.Timeout {
		t.Errorf("Expected timeout %v, got %v", want.Prover.Timeout, cfg.Prover.Timeout)
	}
	if cfg.Prover.DefaultDomain != model.DomainComplex {
		t.Errorf("Expected complex default domain, got %s", cfg.Prover.DefaultDomain)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `prover:
  timeout: 250ms
  default_domain: real
concurrency:
  workers: 0
cache:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := newTestViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Prover.Timeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.Prover.Timeout)
	}
	if cfg.Prover.DefaultDomain != model.DomainReal {
		t.Errorf("Expected real, got %s", cfg.Prover.DefaultDomain)
	}
	if cfg.Concurrency.Workers < 1 {
		t.Errorf("Expected workers to fall back to NumCPU, got %d", cfg.Concurrency.Workers)
	}
	if cfg.Cache.Enabled {
		t.Error("Expected cache disabled")
	}
	// Untouched keys keep their defaults
	if cfg.Prover.MaxTerms != model.DefaultConfig().Prover.MaxTerms {
		t.Errorf("Expected default max terms, got %d", cfg.Prover.MaxTerms)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	v := newTestViper()
	v.Set("prover.default_domain", "quaternion")
	if _, err := loadConfig(v); err == nil {
		t.Error("Expected error for unknown domain")
	}

	v = newTestViper()
	v.Set("logging.level", "loud")
	if _, err := loadConfig(v); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestInitConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".eqverify", "config.yaml")
	if err := initConfigFile(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := initConfigFile(path); err == nil {
		t.Error("Expected error when the config file already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
	for _, section := range []string{"prover", "run", "concurrency", "cache", "output", "logging", "metrics"} {
		if _, ok := decoded[section]; !ok {
			t.Errorf("Missing section %s", section)
		}
	}

	v := newTestViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Prover.Timeout != model.DefaultConfig().Prover.Timeout {
		t.Errorf("Expected default timeout after round trip, got %v", cfg.Prover.Timeout)
	}
}

func TestParseSymbols(t *testing.T) {
	symbols, err := parseSymbols(map[string]string{"x": "real", "r": "positive"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if symbols["x"] != model.DomainReal || symbols["r"] != model.DomainPositive {
		t.Errorf("Unexpected symbols: %v", symbols)
	}

	if _, err := parseSymbols(map[string]string{"pi": "real"}); err == nil {
		t.Error("Expected error when redeclaring a constant")
	}
	if _, err := parseSymbols(map[string]string{"x": "integer"}); err == nil {
		t.Error("Expected error for unknown domain")
	}
}

func TestRunSimplify(t *testing.T) {
	prover := prove.NewProver(model.DefaultConfig().Prover)

	var out bytes.Buffer
	if err := runSimplify(context.Background(), &out, prover, "(1 + sqrt(5))^2", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "6 + 2*sqrt(5)" {
		t.Errorf("Expected 6 + 2*sqrt(5), got %q", got)
	}

	out.Reset()
	if err := runSimplify(context.Background(), &out, prover, "f(x)", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "undecided: uninterpreted function f") {
		t.Errorf("Expected undecided reason, got %q", out.String())
	}

	if err := runSimplify(context.Background(), &out, prover, "2x", nil); err == nil {
		t.Error("Expected error for malformed expression")
	}
}

func TestExitStatus(t *testing.T) {
	report := &model.Report{Catalog: "demo", Complete: true}
	if err := exitStatus(report, true); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	report.Overall.Disproved = 1
	if err := exitStatus(report, false); err != nil {
		t.Errorf("Expected nil without strict mode, got %v", err)
	}
	if err := exitStatus(report, true); !errors.Is(err, ErrStrict) {
		t.Errorf("Expected ErrStrict, got %v", err)
	}

	report.Complete = false
	if err := exitStatus(report, false); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"algebra":   "algebra",
		"two words": "two_words",
		"a:b*c?":    "a_b_c_",
		"dir/name":  "name",
		"":          "catalog",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}

	used := map[string]int{}
	if got := uniqueSlug(used, "demo"); got != "demo" {
		t.Errorf("Expected demo, got %s", got)
	}
	if got := uniqueSlug(used, "demo"); got != "demo-2" {
		t.Errorf("Expected demo-2, got %s", got)
	}
}
