package request

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var requestLineRegex = regexp.MustCompile(`^(GET|HEAD|POST|PUT|PATCH|DELETE|TRACE|OPTIONS) ([^\s]+) HTTP/1.1$`)

func parseRequestLine(line string) (MethodType, string, error) {
	matches := requestLineRegex.FindStringSubmatch(line)
	if len(matches) != 3 {
		return "", "", ErrMalformedRequestLine
	}
	return MethodType(matches[1]), matches[2], nil
}

// readFieldLine reads one CRLF-terminated line without the terminator.
func readFieldLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", ErrIncompleteRequest
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", ErrMalformedRequestLine
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

// FromReader decodes one HTTP/1.1 request from the reader. The body is left
// unread on the wire and materialized on the first Request.Body call.
func FromReader(reader io.Reader) (*Request, error) {
	buffered, ok := reader.(*bufio.Reader)
	if !ok {
		buffered = bufio.NewReader(reader)
	}

	line, err := readFieldLine(buffered)
	if err != nil {
		return nil, err
	}

	method, target, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req := New(method, target)
	req.bodyReader = buffered

	for {
		line, err := readFieldLine(buffered)
		if err != nil {
			return nil, ErrIncompleteRequest
		}
		if line == "" {
			// double CRLF, headers over
			break
		}
		if err := req.Headers.ParseFieldLine([]byte(line)); err != nil {
			return nil, err
		}
	}

	return req, nil
}
