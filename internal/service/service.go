// Package service installs wulang as a systemd user service.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

const unitName = "wulang.service"

func unitDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "systemd", "user")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "systemd", "user")
}

func unitPath() string {
	return filepath.Join(unitDir(), unitName)
}

// Install writes a user unit that runs this binary from the current
// directory, so the .env, database and WhatsApp session found here are the
// ones the service uses. The WhatsApp session must already be paired.
func Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	unit, err := renderUnit(unitData{BinPath: exe, WorkDir: workDir})
	if err != nil {
		return fmt.Errorf("generating unit: %w", err)
	}
	if err := os.MkdirAll(unitDir(), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", unitDir(), err)
	}
	if err := os.WriteFile(unitPath(), []byte(unit), 0644); err != nil {
		return fmt.Errorf("writing unit: %w", err)
	}
	fmt.Printf("wrote unit to %s\n", unitPath())

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := systemctl("enable", "--now", unitName); err != nil {
		return err
	}
	fmt.Println("service enabled and started")
	return nil
}

// Uninstall stops and disables the unit and removes its file.
func Uninstall() error {
	if _, err := os.Stat(unitPath()); err != nil {
		fmt.Println("unit not found, skipping")
		return nil
	}
	if err := systemctl("disable", "--now", unitName); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := os.Remove(unitPath()); err != nil {
		return fmt.Errorf("removing unit: %w", err)
	}
	fmt.Printf("removed %s\n", unitPath())
	_ = systemctl("daemon-reload")
	fmt.Println("uninstalled")
	return nil
}

func Status() error {
	cmd := exec.Command("systemctl", "--user", "status", "--no-pager", unitName)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("service is not running")
	}
	return nil
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=wulang WhatsApp assistant
After=network-online.target
Wants=network-online.target

[Service]
ExecStart={{.BinPath}} run
WorkingDirectory={{.WorkDir}}
Restart=on-failure
RestartSec=10

[Install]
WantedBy=default.target
`))

type unitData struct {
	BinPath string
	WorkDir string
}

func renderUnit(d unitData) (string, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
