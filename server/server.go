package server

import (
	"bufio"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/sleipnir-web/sleipnir/dispatch"
	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
)

// Server accepts connections and feeds decoded requests to the dispatcher.
// Each connection gets its own goroutine; requests on one connection are read
// and dispatched strictly in arrival order, which is what keeps same-session
// state changes ordered for a single client.
type Server struct {
	opts       Opts
	listener   net.Listener
	closed     atomic.Bool
	dispatcher *dispatch.Dispatcher
}

// Close shuts the server down.
func (s *Server) Close() error {
	s.closed.Store(true)
	return s.listener.Close()
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) bind() error {
	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.opts.Address)
	}
	s.listener = listener
	return nil
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.closed.Load() {
				log.Println("unable to accept connection: " + err.Error())
				return err
			}
			break
		}

		if conn == nil {
			continue
		}

		if s.opts.ReadTimeout != 0 {
			conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
		if s.opts.WriteTimeout != 0 {
			conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		}
		go s.handle(conn)
	}
	return nil
}

func writeAndRelease(conn net.Conn, resp *response.Response) error {
	defer resp.Release()
	return resp.Send(conn)
}

func badRequestResponse() *response.Response {
	return response.New().SetStatus(response.StatusBadRequest)
}

func (s *Server) handle(conn net.Conn) {
	shouldCloseConn := false
	if s.opts.KeepAliveTimeout == 0 {
		shouldCloseConn = true
	}

	// defers are stacked

	defer func() {
		if conn != nil && shouldCloseConn {
			if err := conn.Close(); err != nil {
				log.Println("unable to close connection:", err)
			}
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			recovery := s.opts.Recovery
			if recovery == nil {
				recovery = defaultRecovery
			}
			writeAndRelease(conn, recovery(r))
			conn.Close()
		}
	}()

	reader := bufio.NewReader(conn)

	for {
		if s.opts.KeepAliveTimeout != 0 && conn != nil {
			conn.SetDeadline(time.Now().Add(s.opts.KeepAliveTimeout))
		}

		req, err := request.FromReader(reader)
		if err != nil {
			// invalid request
			writeAndRelease(conn, badRequestResponse())
			shouldCloseConn = true
			break
		}

		hostHeader := req.Headers.Get("host")
		if hostHeader == "" || len(strings.Split(hostHeader, ",")) > 1 {
			// more than one host not allowed
			writeAndRelease(conn, badRequestResponse())
			shouldCloseConn = true
			break
		}

		resp := s.dispatcher.Dispatch(req)
		resp.Headers.Remove("date")
		resp.SetHeader("date", time.Now().Format(time.RFC1123))
		if shouldCloseConn {
			resp.SetHeader("connection", "close")
		}

		if err := writeAndRelease(conn, resp); err != nil {
			log.Println("unable to write response to connection:", err)
			shouldCloseConn = true
			break
		}

		// if the client requests connection close, respect it
		if strings.TrimSpace(strings.ToLower(req.Headers.Get("connection"))) == "close" {
			shouldCloseConn = true
			break
		}

		if shouldCloseConn {
			break
		}

		// discard any unread body so the next request starts clean
		if err := req.Discard(); err != nil {
			shouldCloseConn = true
			break
		}
	}
}

func newServer(opts Opts, dispatcher *dispatch.Dispatcher) *Server {
	if opts.Recovery == nil {
		opts.Recovery = defaultRecovery
	}
	if opts.Address == "" {
		opts.Address = ":8440"
	}
	return &Server{
		opts:       opts,
		dispatcher: dispatcher,
	}
}

// Serve starts the HTTP server with the given options and dispatcher. It
// returns once the listener is bound; accepting runs in the background until
// Close.
func Serve(opts Opts, dispatcher *dispatch.Dispatcher) (*Server, error) {
	s := newServer(opts, dispatcher)
	if err := s.bind(); err != nil {
		return nil, err
	}

	go func() {
		if err := s.acceptLoop(); err != nil {
			log.Println("accept loop stopped:", err)
		}
	}()

	return s, nil
}
