package cli

import (
	"fmt"
	"unicode/utf8"
)

// Store backends accepted by Options.Store.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// EnvRedisAddr and EnvKey are read when the matching flags are not set.
const (
	EnvRedisAddr = "STEPSHEET_REDIS_ADDR"
	EnvKey       = "STEPSHEET_KEY"
)

// Options carries the flags shared by every command.
type Options struct {
	Dir       string
	Store     string
	RedisAddr string
	Debug     bool
	LogJSON   bool

	// Data are the CSV files the analysis is replayed over, in order.
	Data     []string
	Comma    string
	Comments bool
	Rows     int
}

func (o Options) comma() (rune, error) {
	if o.Comma == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(o.Comma)
	if size != len(o.Comma) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", o.Comma)
	}
	return r, nil
}
