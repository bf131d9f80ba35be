package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// skipShort skips integration tests in -short mode
func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// buildBinary builds the loglens binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "loglens")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/loglens")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// writeFakeAdb writes a shell script that mimics the adb subcommands the
// CLI paths exercise and returns its path.
func writeFakeAdb(t *testing.T) string {
	t.Helper()

	script := `#!/bin/sh
cmd="$1"
if [ "$cmd" = "-s" ]; then
  shift 2
  cmd="$1"
fi
case "$cmd" in
devices)
  echo "List of devices attached"
  echo "emulator-5554          device product:sdk_gphone64 model:Pixel_6 device:emu64x"
  echo "0a38cdef               unauthorized"
  exit 0
  ;;
logcat)
  if [ "$2" = "-c" ] || [ "$1" = "-c" ]; then
    exit 0
  fi
  exit 0
  ;;
esac
exit 1
`
	path := filepath.Join(t.TempDir(), "adb")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake adb: %v", err)
	}
	return path
}

// writeConfig writes a loglens.yaml pointing at the fake adb and returns
// its path.
func writeConfig(t *testing.T, adbPath string) string {
	t.Helper()

	dir := t.TempDir()
	presetFile := filepath.Join(dir, "filters.json")
	config := "adb_path: " + adbPath + "\npreset_file: " + presetFile + "\n"

	path := filepath.Join(dir, "loglens.yaml")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// runLoglens runs the binary to completion and returns combined output
func runLoglens(t *testing.T, binary string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binary, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
