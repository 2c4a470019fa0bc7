package main

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestIsWorkerCmdline(t *testing.T) {
	assert.Equal(t, true, isWorkerCmdline([]string{"/usr/bin/futes", "futes-worker"}))
	assert.Equal(t, true, isWorkerCmdline([]string{"/tmp/runner.test", "futes-worker"}))
	assert.Equal(t, false, isWorkerCmdline([]string{"futes-worker"}))
	assert.Equal(t, false, isWorkerCmdline([]string{"/usr/bin/futes", "status"}))
}
