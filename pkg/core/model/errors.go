package model

import "errors"

// Refusal is a recoverable business-rule rejection: the caller corrects the
// input and retries. It is never fatal to the process.
type Refusal struct {
	Msg string
}

func (r *Refusal) Error() string { return r.Msg }

// Refuse builds a Refusal.
func Refuse(msg string) error { return &Refusal{Msg: msg} }

// IsRefusal reports whether err is (or wraps) a business refusal.
func IsRefusal(err error) bool {
	var r *Refusal
	return errors.As(err, &r)
}

// ErrVersionConflict signals that a planning month was mutated concurrently.
// Callers may reload and retry.
var ErrVersionConflict = errors.New("planning month was modified concurrently")
