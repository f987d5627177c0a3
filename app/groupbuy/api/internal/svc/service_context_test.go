package svc

import (
	"testing"

	"groupbuy-platform/app/groupbuy/api/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildMySQLDSN(t *testing.T) {
	c := config.MySQLConfig{
		Host:     "127.0.0.1",
		Port:     3306,
		Username: "root",
		Password: "secret",
		Database: "groupbuy",
	}
	assert.Equal(t,
		"root:secret@tcp(127.0.0.1:3306)/groupbuy?charset=utf8mb4&parseTime=true&loc=Local&innodb_lock_wait_timeout=5",
		buildMySQLDSN(c))

	c.LockWaitTimeout = 2
	assert.Contains(t, buildMySQLDSN(c), "innodb_lock_wait_timeout=2")
}
