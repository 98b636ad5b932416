package idscan

import (
	"time"

	"github.com/redactyl/idscan/internal/config"
)

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickDuration resolves a duration flag against config strings. Unparseable
// config values are reported rather than silently ignored.
func pickDuration(cli time.Duration, local, global *string) (time.Duration, error) {
	if cli != 0 {
		return cli, nil
	}
	for _, s := range []*string{local, global} {
		d, err := config.Duration(s)
		if err != nil {
			return 0, err
		}
		if d != nil {
			return *d, nil
		}
	}
	return 0, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
