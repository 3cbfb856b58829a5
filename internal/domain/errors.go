package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// DuplicateBookingError is returned when a customer already holds a booking for the package.
type DuplicateBookingError struct {
	CustomerID int64
	PackageID  int64
	Err        error
}

func (e DuplicateBookingError) Error() string {
	return fmt.Sprintf("customer %d already booked package %d", e.CustomerID, e.PackageID)
}

func (e DuplicateBookingError) Unwrap() error { return e.Err }

// InvalidAmountError rejects non-positive money amounts.
type InvalidAmountError struct {
	Field  string
	Amount string
}

func (e InvalidAmountError) Error() string {
	field := e.Field
	if field == "" {
		field = "amount"
	}
	return fmt.Sprintf("%s must be greater than zero, got %s", field, e.Amount)
}

// GatewayUnavailableError wraps failures talking to the external payment gateway.
type GatewayUnavailableError struct {
	Op  string
	Err error
}

func (e GatewayUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("payment gateway unavailable (%s)", e.Op)
	}
	return fmt.Sprintf("payment gateway unavailable (%s): %v", e.Op, e.Err)
}

func (e GatewayUnavailableError) Unwrap() error { return e.Err }

type InvalidStateTransitionError struct {
	Resource string
	From     string
	To       string
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Resource, e.From, e.To)
}

const (
	SeatTaken          = "seat_taken"
	SeatCustomerSeated = "customer_seated"
)

// SeatConflictError surfaces the seat uniqueness keys as a structured error.
type SeatConflictError struct {
	AssignmentID int64
	SeatNumber   int
	CustomerID   int64
	Reason       string
	Err          error
}

func (e SeatConflictError) Error() string {
	switch e.Reason {
	case SeatTaken:
		return fmt.Sprintf("seat %d is already taken", e.SeatNumber)
	case SeatCustomerSeated:
		return fmt.Sprintf("customer %d already has a seat in this vehicle", e.CustomerID)
	default:
		return fmt.Sprintf("seat %d conflict", e.SeatNumber)
	}
}

func (e SeatConflictError) Unwrap() error { return e.Err }

// ReferenceParseError marks a gateway external reference that does not point at a booking.
type ReferenceParseError struct {
	Reference string
}

func (e ReferenceParseError) Error() string {
	return fmt.Sprintf("external reference %q is not a booking reference", e.Reference)
}

func IsDuplicateBooking(err error) bool {
	var target DuplicateBookingError
	return errors.As(err, &target)
}

func IsInvalidAmount(err error) bool {
	var target InvalidAmountError
	return errors.As(err, &target)
}

func IsGatewayUnavailable(err error) bool {
	var target GatewayUnavailableError
	return errors.As(err, &target)
}

func IsInvalidStateTransition(err error) bool {
	var target InvalidStateTransitionError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsReferenceParse(err error) bool {
	var target ReferenceParseError
	return errors.As(err, &target)
}
