package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "DYNAMODB_USERS_TABLE", "DYNAMODB_DATA_TABLE", "AWS_REGION", "BCRYPT_COST", "JWT_ACCESS_TTL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, StoreDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "taskhive-users", cfg.UsersTable)
	assert.Equal(t, "todo-list-data", cfg.DataTable)
	assert.Equal(t, "ap-southeast-1", cfg.AWSRegion)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DYNAMODB_CREATE_TABLES", "true")
	t.Setenv("JWT_REFRESH_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("EVENTS_ENABLED", "yes-please")

	cfg := FromEnv()

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.True(t, cfg.DynamoDBCreateTables)
	assert.Equal(t, 2*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	// unparsable booleans fall back to the default
	assert.False(t, cfg.EventsEnabled)
}

func TestConfig_Lists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
		ElasticsearchAddrs: "http://es:9200",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, cfg.ESAddrs())
	assert.Empty(t, (&Config{}).CORSOrigins())
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
