package versions

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-06-01T08:00:00Z"},
	}

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		settings      []debug.BuildSetting
		wantVersion   string
		wantCommit    string
		wantBuildDate string
	}{
		{
			name:          "release build keeps ldflags values",
			version:       "v1.2.0",
			commit:        "abc",
			buildDate:     "2024-05-01T00:00:00Z",
			settings:      vcs,
			wantVersion:   "v1.2.0",
			wantCommit:    "abc",
			wantBuildDate: "2024-05-01 00:00:00 UTC",
		},
		{
			name:          "dev build reads vcs settings",
			version:       devVersion,
			commit:        unknownStr,
			buildDate:     unknownStr,
			settings:      vcs,
			wantVersion:   "build-01234567",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "2024-06-01 08:00:00 UTC",
		},
		{
			name:          "dev build without vcs",
			version:       devVersion,
			commit:        unknownStr,
			buildDate:     unknownStr,
			wantVersion:   "build-unknown",
			wantCommit:    unknownStr,
			wantBuildDate: unknownStr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := resolve(tt.version, tt.commit, tt.buildDate, tt.settings)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}
