package gateway

// Envelope is the wrapper every identity and geo response uses.
type Envelope[T any] struct {
	Value         *T      `json:"value"`
	FailureReason *string `json:"failureReason"`
	IsSuccess     bool    `json:"isSuccess"`
}

// Result unwraps the envelope into a value or a ServerError / ErrUnknown.
func (e Envelope[T]) Result() (T, error) {
	var zero T
	switch {
	case e.IsSuccess && e.Value != nil:
		return *e.Value, nil
	case !e.IsSuccess && e.FailureReason != nil:
		return zero, &ServerError{Reason: *e.FailureReason}
	default:
		return zero, ErrUnknown
	}
}

func Success[T any](v T) Envelope[T] {
	return Envelope[T]{Value: &v, IsSuccess: true}
}

func Failure[T any](reason string) Envelope[T] {
	return Envelope[T]{FailureReason: &reason}
}
