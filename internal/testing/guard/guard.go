package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("GESTIO_TEST_MODE") == "" {
			_ = os.Setenv("GESTIO_TEST_MODE", "1")
		}
	})
}
