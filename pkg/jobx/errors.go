package jobx

import "github.com/Abraxas-365/keygate/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound    = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrEnqueueFailed  = jobxErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 502, "Failed to enqueue job")
	ErrAlreadyRunning = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)
