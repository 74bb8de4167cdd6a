package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Port              int           `env:"PORT,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	SendTimeout       time.Duration `env:"SEND_TIMEOUT"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	CensoredWords     []string      `env:"CENSORED_WORDS"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// CharacterRune returns the censor replacement character, defaulting to
// '*' when unset.
func CharacterRune(str string) (rune, error) {
	if str == "" {
		return '*', nil
	}
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
