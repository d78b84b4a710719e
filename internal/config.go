package internal

import (
	"fmt"
	"strings"
	"time"
)

// Config is the chat server environment. Secrets and paths are required;
// tuning knobs carry defaults that suit a single-node deployment.
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	NatsURL        string `env:"NATS_URL,default=nats://localhost:4222"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	BotUserName string `env:"BOT_USER_NAME,default=stockbot"`

	CensoredWords   string `env:"CENSORED_WORDS,required=true"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,required=true"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=5s"`
	AckWait         time.Duration `env:"ACK_WAIT,default=30s"`

	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=64"`
}

// CharacterRune enforces the single-rune constraint on the replacement
// character taken from the environment.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// SplitWords turns the comma-separated censored word list into its items,
// dropping empty entries.
func SplitWords(raw string) []string {
	parts := strings.Split(raw, ",")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if word := strings.TrimSpace(part); word != "" {
			words = append(words, word)
		}
	}
	return words
}
