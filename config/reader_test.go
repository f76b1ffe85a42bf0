package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/pcindex/logging"
	"go.viam.com/pcindex/octree"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestReadJSON(t *testing.T) {
	t.Setenv("PCINDEX_TEST_THRESHOLD", "16")
	path := writeConfig(t, "index.json", `{
		"octree": {"threshold": ${PCINDEX_TEST_THRESHOLD}, "max_depth": 10},
		"logging": {"level": "debug"},
		"input": {"file": "scan.pcd", "padding": 0.5}
	}`)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Octree, test.ShouldResemble, octree.Config{Threshold: 16, MaxDepth: 10})
	test.That(t, cfg.Logging.Level, test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.Input.File, test.ShouldEqual, filepath.Join(filepath.Dir(path), "scan.pcd"))
	test.That(t, cfg.Input.Padding, test.ShouldEqual, 0.5)
}

func TestReadYAML(t *testing.T) {
	path := writeConfig(t, "index.yaml", strings.Join([]string{
		"octree:",
		"  threshold: 32",
		"logging:",
		"  level: warn",
		"input:",
		"  file: /data/scan.las",
	}, "\n"))

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Octree.Threshold, test.ShouldEqual, 32)
	test.That(t, cfg.Octree.MaxDepth, test.ShouldEqual, octree.DefaultConfig().MaxDepth)
	test.That(t, cfg.Logging.Level, test.ShouldEqual, logging.WARN)
	test.That(t, cfg.Input.File, test.ShouldEqual, "/data/scan.las")
}

func TestReadDefaults(t *testing.T) {
	cfg, err := FromReader("empty.yml", strings.NewReader(""))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())

	cfg, err = FromReader("", strings.NewReader("{}"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("bad.json", strings.NewReader(`{"octree": {"treshold": 3}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "treshold")

	_, err = FromReader("bad.yaml", strings.NewReader("logging:\n  level: loud\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")

	_, err = FromReader("bad.json", strings.NewReader(`{"octree": {"threshold": 0}, "input": {"padding": -1}}`))
	test.That(t, errors.Is(err, octree.ErrInvalidConfig), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"octree.threshold"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"input.padding"`)
}
