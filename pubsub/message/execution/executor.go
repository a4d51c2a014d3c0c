package execution

// Executor is called for each received message matched by the dispatcher.
// It should return an error only on infrastructure failures, business outcomes
// are communicated with messages.
type Executor func(execCtx MessageExecutionCtx) error
