package errors

// Status tells the subscriber what to do with a package whose handler returned an error
type Status int

const (
	// Retry lets the transport redeliver the package
	Retry Status = iota
	// NoRetry acknowledges the package despite the error, redelivery would not help
	NoRetry
)

type StatusErr struct {
	error
	status Status
}

func (e StatusErr) Status() Status {
	return e.status
}

func (e StatusErr) Unwrap() error {
	return e.error
}

func WithStatusErr(status Status, err error) error {
	return StatusErr{error: err, status: status}
}

// StatusOf reports the retry status recorded in err, defaulting to Retry
func StatusOf(err error) Status {
	type statusCarrier interface {
		Status() Status
	}

	if carrier, ok := err.(statusCarrier); ok {
		return carrier.Status()
	}

	return Retry
}
