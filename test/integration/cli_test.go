package integration

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	output, err := runLoglens(t, binary, "version")
	if err != nil {
		t.Fatalf("version failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "loglens version") {
		t.Errorf("unexpected version output: %s", output)
	}
}

func TestDevicesCommand(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	adb := writeFakeAdb(t)
	config := writeConfig(t, adb)

	output, err := runLoglens(t, binary, "devices", "-c", config)
	if err != nil {
		t.Fatalf("devices failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "emulator-5554") {
		t.Errorf("expected emulator serial in output: %s", output)
	}
	if !strings.Contains(output, "Pixel_6") {
		t.Errorf("expected model name in output: %s", output)
	}
	if !strings.Contains(output, "unauthorized") {
		t.Errorf("expected unauthorized device to be listed with status: %s", output)
	}
}

func TestClearCommand(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	adb := writeFakeAdb(t)
	config := writeConfig(t, adb)

	output, err := runLoglens(t, binary, "clear", "-c", config)
	if err != nil {
		t.Fatalf("clear failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "cleared") {
		t.Errorf("expected confirmation in output: %s", output)
	}
}

func TestPresetsCommandEmpty(t *testing.T) {
	skipShort(t)

	binary := buildBinary(t)
	adb := writeFakeAdb(t)
	config := writeConfig(t, adb)

	output, err := runLoglens(t, binary, "presets", "-c", config)
	if err != nil {
		t.Fatalf("presets failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "No presets saved.") {
		t.Errorf("expected empty preset message: %s", output)
	}
}
