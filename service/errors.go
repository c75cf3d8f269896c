package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/nquads"
)

// canonicalization failures and the status codes that carry them
var codeFor = []struct {
	err  error
	code codes.Code
}{
	{nquads.ErrSyntax, codes.InvalidArgument},
	{canon.ErrBudgetExceeded, codes.ResourceExhausted},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range codeFor {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// RemoteError is returned by Client when the service rejects a request. It
// keeps the server's message and unwraps to the matching local sentinel, so
// errors.Is(err, nquads.ErrSyntax) works across the wire.
type RemoteError struct {
	Code    codes.Code
	Message string
	cause   error
}

func (e *RemoteError) Error() string { return "service: " + e.Message }

func (e *RemoteError) Unwrap() error { return e.cause }

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, m := range codeFor {
		if st.Code() == m.code {
			return &RemoteError{Code: st.Code(), Message: st.Message(), cause: m.err}
		}
	}
	return &RemoteError{Code: st.Code(), Message: st.Message()}
}
