package version

import (
	"fmt"
	"runtime"
)

// 构建时通过 -ldflags "-X" 注入
var (
	Release   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Short 版本号
func Short() string {
	return Release
}

// Full 版本号和提交
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Release, GitCommit)
}

// FullWithPlatform 版本号、提交、构建时间和运行平台
func FullWithPlatform() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s/%s, %s)",
		Release, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
