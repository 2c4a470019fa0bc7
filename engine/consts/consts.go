package consts

import "time"

// Tunable Options
const (
	// For Transport
	// MAX_FRAME_SIZE is the maximum payload length of one frame on the worker pipes
	MAX_FRAME_SIZE = 16 * 1024 * 1024
	// WORKER_INBOUND_FD is the file descriptor the worker reads calls from
	WORKER_INBOUND_FD = 3
	// WORKER_OUTBOUND_FD is the file descriptor the worker writes results to
	WORKER_OUTBOUND_FD = 4

	// For Worker
	// WORKER_TICK_INTERVAL is the pause between two simulated engine ticks
	WORKER_TICK_INTERVAL = time.Millisecond * 10
	// WORKER_POLL_TIMEOUT is the default timeout of polling operations
	WORKER_POLL_TIMEOUT = time.Second * 20

	// For Runner
	// RUNNER_CALL_TIMEOUT is the default upper bound of one remote call
	RUNNER_CALL_TIMEOUT = time.Minute
	// RUNNER_POLL_INTERVAL is the sleep between two polls of the result channel
	RUNNER_POLL_INTERVAL = time.Millisecond
	// RUNNER_STOP_TIMEOUT is how long Stop waits for the worker to exit before killing it
	RUNNER_STOP_TIMEOUT = time.Second * 10

	// For Mod
	// MOD_RETRY_TIMEOUT is the delay before the mod reconnects to the voice chat client query
	MOD_RETRY_TIMEOUT = time.Second * 10
	// MOD_UNREGISTER_WAIT_TIMEOUT is how long the mod waits for the query connection to close on unload
	MOD_UNREGISTER_WAIT_TIMEOUT = time.Second * 5
	// MOD_POLLING_INTERVAL is the default interval of client list polls
	MOD_POLLING_INTERVAL = time.Second

	// For Async Jobs
	// ASYNC_JOB_QUEUE_MAXLEN is the capacity of the job queue of one async group
	ASYNC_JOB_QUEUE_MAXLEN = 128

	// For Operation Monitor
	// OPMON_WARN_THRESHOLD is the duration above which a worker operation is logged as slow
	OPMON_WARN_THRESHOLD = time.Minute

	// For Stray Workers
	// STOP_PROCESS_POLL_INTERVAL is the interval to check if a signaled process is gone
	STOP_PROCESS_POLL_INTERVAL = time.Millisecond * 100
)

// Debug Options
const (
	// DEBUG_CALLS prints every call and result crossing the process boundary
	DEBUG_CALLS = false
	// DEBUG_QUERY prints the raw voice chat client query traffic
	DEBUG_QUERY = false
)

// Process markers
const (
	// WORKER_ARG is the argument that makes an executable run as a harness worker
	WORKER_ARG = "futes-worker"
	// WORKER_ENV is the environment variable set for worker processes
	WORKER_ENV = "FUTES_WORKER"
)
