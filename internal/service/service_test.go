package service

import (
	"strings"
	"testing"

	"github.com/chris/copiloto/config"
)

func testLayout() Layout {
	return Layout{Label: "com.copiloto.test", BinPath: "/opt/bin/copiloto", Home: "/Users/test"}
}

func TestLayoutPaths(t *testing.T) {
	l := testLayout()
	if got := l.PlistPath(); got != "/Users/test/Library/LaunchAgents/com.copiloto.test.plist" {
		t.Errorf("PlistPath = %q", got)
	}
	if got := l.StdoutLog(); got != "/Users/test/Library/Logs/copiloto-stdout.log" {
		t.Errorf("StdoutLog = %q", got)
	}
}

func TestRenderPlist(t *testing.T) {
	out, err := renderPlist(testLayout(), "/srv/copiloto")
	if err != nil {
		t.Fatalf("renderPlist: %v", err)
	}
	for _, want := range []string{
		"<string>com.copiloto.test</string>",
		"<string>/opt/bin/copiloto</string>\n\t\t<string>serve</string>",
		"<string>/srv/copiloto</string>",
		"<string>/Users/test/Library/Logs/copiloto-stderr.log</string>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plist missing %q\n%s", want, out)
		}
	}
}

func TestWorkDirFor(t *testing.T) {
	if got := workDirFor(map[string]string{}); got != config.ConfigDir() {
		t.Errorf("memory backend should use config dir, got %q", got)
	}
	if got := workDirFor(map[string]string{"NOTES_BACKEND": "sqlite", "DATABASE_PATH": "/var/db/notes.db"}); got != config.ConfigDir() {
		t.Errorf("absolute database path should use config dir, got %q", got)
	}
	if got := workDirFor(map[string]string{"NOTES_BACKEND": "sqlite"}); got != "" {
		t.Errorf("relative database path needs the current dir, got %q", got)
	}
}
