package scheduler_test

import (
	"github.com/loesoe/cortex/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}
