package version

import (
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		settings    map[string]string
		wantVersion string
		wantCommit  string
	}{
		{
			name:        "clean checkout",
			settings:    map[string]string{"vcs.revision": "0123456789abcdef", "vcs.time": "2024-05-02T10:00:00Z"},
			wantVersion: "dev-20240502",
			wantCommit:  "0123456",
		},
		{
			name:        "dirty tree",
			settings:    map[string]string{"vcs.revision": "abc", "vcs.modified": "true"},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:        "module version",
			settings:    map[string]string{"main.version": "v0.3.0"},
			wantVersion: "v0.3.0",
			wantCommit:  "",
		},
		{
			name:     "no settings",
			settings: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			savedVersion, savedCommit := Version, Commit
			defer func() { Version, Commit = savedVersion, savedCommit }()

			Version, Commit = "", ""
			fromBuildInfo(tt.settings)

			if Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", Version, tt.wantVersion)
			}
			if Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", Commit, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	if !strings.Contains(Full(), Commit) || !strings.HasPrefix(UserAgent(), "printlink/") {
		t.Errorf("Full() = %q, UserAgent() = %q", Full(), UserAgent())
	}
}
