package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Telegram struct {
		Token   string
		OwnerID int64
	}
	Raid struct {
		DefaultSlots int
	}
	Reminder struct {
		PollIntervalSeconds int
		ThresholdMinutes    []int
	}
	Profile struct {
		APIURL         string
		APIKey         string
		TimeoutSeconds int
	}
	Admin struct {
		Password        string
		JWTSecret       string
		TokenTTLMinutes int
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("RAIDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/raidbot.db")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.ownerid", 0)
	v.SetDefault("raid.defaultslots", 10)
	v.SetDefault("reminder.pollintervalseconds", 50)
	v.SetDefault("reminder.thresholdminutes", []int{30, 10})
	v.SetDefault("profile.apiurl", "")
	v.SetDefault("profile.apikey", "")
	v.SetDefault("profile.timeoutseconds", 6)
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.jwtsecret", "")
	v.SetDefault("admin.tokenttlminutes", 60)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
