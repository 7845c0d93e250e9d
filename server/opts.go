package server

import (
	"log"
	"runtime/debug"
	"time"

	"github.com/sleipnir-web/sleipnir/response"
)

type Opts struct {
	// The address for the server to listen on.
	Address string

	// Connection deadlines. Zero means no deadline.
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	KeepAliveTimeout time.Duration

	// Recovery takes the return value of a recover() call inside the
	// connection goroutine and produces the response written before the
	// connection is closed. Handler panics never reach this; the dispatcher
	// absorbs those itself.
	Recovery func(any) *response.Response
}

var defaultRecovery = func(r any) *response.Response {
	log.Println("recovered from panic:", r)
	debug.PrintStack()
	return response.New().
		SetStatus(response.StatusInternalServerError).
		Text(response.GetStatusReason(response.StatusInternalServerError))
}
