package kernel

// Kernel message payload types

// UnknownOperation is replied by services that do not handle a payload.
type UnknownOperation struct {
}

// Exit represents a message sent to an actor to terminate it, this is handled by the kernel.
type Exit struct {
	Reason string
}

// Shutdown is passed to an actor's handler right before it exits so it can release resources.
type Shutdown struct {
	Reason string
}
