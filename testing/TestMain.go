package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TALLYBOOK_TEST_MODE", "1")
		if os.Getenv("LOCK_BACKEND") == "" {
			_ = os.Setenv("LOCK_BACKEND", "local")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
