// Package db provides store connectivity, migration, and seeding.
package db

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a GORM connection using a MySQL-compatible DSN, e.g.
// "user:pass@tcp(127.0.0.1:3306)/taskboard?parseTime=true".
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	return gdb, nil
}

// MySQL server error numbers that indicate a transient condition worth
// retrying with backoff rather than a query bug.
var transientMySQLErrNums = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR: too many connections
	1053: true, // ER_SERVER_SHUTDOWN
	1205: true, // ER_LOCK_WAIT_TIMEOUT
	1213: true, // ER_LOCK_DEADLOCK
	2006: true, // CR_SERVER_GONE_ERROR
	2013: true, // CR_SERVER_LOST
}

// IsTransient reports whether err looks like a temporary store failure
// (connection loss, deadlock, server restart) rather than a logic error.
// The poll loop backs off either way but logs the two differently.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, mysql.ErrBusyBuffer) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return transientMySQLErrNums[myErr.Number]
	}
	return false
}
