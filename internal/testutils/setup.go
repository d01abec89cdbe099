package testutils

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
)

var testDBSeq int64

// SetupDB opens a unique in-memory SQLite database with foreign keys enabled,
// migrates the schema and closes it when the test ends.
func SetupDB(t *testing.T) *db.Conn {
	t.Helper()

	seq := atomic.AddInt64(&testDBSeq, 1)
	conn := db.New(config.DatabaseConfig{
		Type:     "sqlite",
		Filename: fmt.Sprintf("file:pic_%d?mode=memory&cache=shared", seq),
	})
	if _, err := conn.Open(); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
