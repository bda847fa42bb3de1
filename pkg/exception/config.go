package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigNoPath  = errors.New("config: no path specified")
	ErrConfigInvalid = errors.New("config: invalid")
)
