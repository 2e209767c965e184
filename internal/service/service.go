// Package service installs copiloto as a launchd user agent on macOS.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/joho/godotenv"

	"github.com/chris/copiloto/config"
)

// Layout holds every path the service touches.
type Layout struct {
	Label   string
	BinPath string
	Home    string
}

func DefaultLayout() Layout {
	home, _ := os.UserHomeDir()
	return Layout{Label: "com.copiloto.server", BinPath: "/usr/local/bin/copiloto", Home: home}
}

func (l Layout) PlistPath() string {
	return filepath.Join(l.Home, "Library", "LaunchAgents", l.Label+".plist")
}

func (l Layout) StdoutLog() string { return filepath.Join(l.Home, "Library", "Logs", "copiloto-stdout.log") }
func (l Layout) StderrLog() string { return filepath.Join(l.Home, "Library", "Logs", "copiloto-stderr.log") }

// Install copies the running binary to l.BinPath, seeds the config file from
// ./.env when there is none yet, writes the plist and loads it.
func Install(l Layout) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	if err := copyFile(exe, l.BinPath, 0755); err != nil {
		return err
	}
	fmt.Printf("installed binary to %s\n", l.BinPath)

	if err := seedConfig(); err != nil {
		return err
	}

	plist, err := renderPlist(l, resolveWorkDir())
	if err != nil {
		return fmt.Errorf("generating plist: %w", err)
	}

	path := l.PlistPath()
	if _, err := os.Stat(path); err == nil {
		_ = launchctl("unload", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(plist), 0644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	fmt.Printf("wrote plist to %s\n", path)

	if err := launchctl("load", path); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	fmt.Println("service loaded and will start on login")
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, mode); err != nil {
		return fmt.Errorf("copying binary to %s: %w", dst, err)
	}
	return nil
}

func seedConfig() error {
	file := config.ConfigFile()
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		fmt.Printf("config already exists at %s\n", file)
		return nil
	}
	env, err := os.ReadFile(".env")
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(config.ConfigDir(), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(file, env, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("seeded config from .env -> %s\n", file)
	return nil
}

// resolveWorkDir picks the service's working directory: the current one when
// the sqlite notes database has a relative path, ~/.copiloto otherwise.
func resolveWorkDir() string {
	env, _ := godotenv.Read(config.ConfigFile())
	if workDirFor(env) == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return config.ConfigDir()
}

// workDirFor returns "" when the working directory matters for env.
func workDirFor(env map[string]string) string {
	if env["NOTES_BACKEND"] != "sqlite" {
		return config.ConfigDir()
	}
	if path, ok := env["DATABASE_PATH"]; ok && filepath.IsAbs(path) {
		return config.ConfigDir()
	}
	return ""
}

// Uninstall unloads and removes the plist and the installed binary.
func Uninstall(l Layout) error {
	path := l.PlistPath()
	if _, err := os.Stat(path); err == nil {
		if err := launchctl("unload", path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: unload failed: %v\n", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing plist: %w", err)
		}
		fmt.Printf("removed %s\n", path)
	} else {
		fmt.Println("plist not found, skipping")
	}

	if _, err := os.Stat(l.BinPath); err == nil {
		if err := os.Remove(l.BinPath); err != nil {
			return fmt.Errorf("removing binary: %w", err)
		}
		fmt.Printf("removed %s\n", l.BinPath)
	} else {
		fmt.Printf("binary not found at %s, skipping\n", l.BinPath)
	}

	fmt.Println("uninstalled")
	return nil
}

func Start(l Layout) error { return launchctl("start", l.Label) }
func Stop(l Layout) error  { return launchctl("stop", l.Label) }

func Restart(l Layout) error {
	_ = Stop(l)
	return Start(l)
}

func Status(l Layout) error {
	cmd := exec.Command("launchctl", "list", l.Label)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("service is not loaded")
	}
	return nil
}

// Logs tails both log files.
func Logs(l Layout) error {
	cmd := exec.Command("tail", "-f", l.StdoutLog(), l.StderrLog())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func launchctl(args ...string) error {
	cmd := exec.Command("launchctl", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("launchctl %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinPath}}</string>
		<string>serve</string>
	</array>
	<key>WorkingDirectory</key>
	<string>{{.WorkDir}}</string>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.StdoutLog}}</string>
	<key>StandardErrorPath</key>
	<string>{{.StderrLog}}</string>
</dict>
</plist>
`))

func renderPlist(l Layout, workDir string) (string, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label, BinPath, WorkDir, StdoutLog, StderrLog string
	}{l.Label, l.BinPath, workDir, l.StdoutLog(), l.StderrLog()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
