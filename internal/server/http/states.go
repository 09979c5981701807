package http

type serverState uint8

const (
	eReadStatusLine serverState = iota + 1
	eParse
	eReadHeaders
	eResolve
	eLoad
	eFallback
)
