package kernel

import (
	"brisk/internal/logger"
)

// LogLevelEnv overrides the kernel's internal log level.
const LogLevelEnv = "BRISK_KERNEL_LOG_LEVEL"

var log = logger.FromEnv("kernel", LogLevelEnv, logger.ERROR)
