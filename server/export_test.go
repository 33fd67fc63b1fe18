package server

// hooks for the external test package
var (
	ValidPageURL         = validPageURL
	TaskErrorStatus      = taskErrorStatus
	ConsumeMessageStream = consumeMessageStream
)

type StreamError = streamError
