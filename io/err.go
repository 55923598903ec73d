package io

import (
	"errors"

	"github.com/ezrec/hcpu/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull  = errors.New(f("channel full"))
	ErrChannelEmpty = errors.New(f("channel empty"))

	// Rom errors
	ErrRomEmpty = errors.New(f("rom empty"))
)
