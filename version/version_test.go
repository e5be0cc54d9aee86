package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestBanner(t *testing.T) {
	info := Info{Version: "1.2.3", Commit: "abc"}

	assert.Equal(t, "NIG Upload version: 1.2.3", info.Banner())
	assert.Contains(t, info.String(), "abc")
}
