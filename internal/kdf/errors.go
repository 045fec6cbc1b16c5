package kdf

import "errors"

var (
	errMemoryTooLow      = errors.New("memory cost too low for requested parallelism")
	errIterationsTooLow  = errors.New("iteration count must be at least 1")
	errParallelismTooLow = errors.New("parallelism must be at least 1")
)
