package version

import (
	"fmt"
	"runtime/debug"
)

// Заполняются через -ldflags "-X .../internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(info.Settings)
	}
}

// applyBuildSettings берёт commit и дату из VCS-настроек сборки,
// если они не заданы через ldflags.
func applyBuildSettings(settings []debug.BuildSetting) {
	if commit != "unknown" {
		return
	}
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
		case "vcs.time":
			date = setting.Value
		}
	}
}

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает git commit сборки.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

// String возвращает строку для логов при старте сервиса.
func String() string {
	return fmt.Sprintf("checkout-service version=%s commit=%s date=%s", version, commit, date)
}
