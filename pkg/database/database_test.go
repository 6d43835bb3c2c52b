package database

import (
	"testing"

	"github.com/arturz777/dlyq/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.PostgresConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "dispatch", SSLMode: "disable",
	})

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=dispatch sslmode=disable", dsn)
}

func TestCloseDB_Nil(t *testing.T) {
	assert.NoError(t, CloseDB(nil))
}
