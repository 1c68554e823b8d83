package event

import "errors"

var errHandlerPanic = errors.New("handler panicked")
