package response

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResponse(t *testing.T) {
	resp := New()
	defer resp.Release()

	assert.Equal(t, StatusOK, resp.StatusCode)
	assert.Empty(t, resp.BodyBytes())

	var buf bytes.Buffer
	require.NoError(t, resp.Send(&buf))
	assert.Equal(t, "HTTP/1.1 200 OK\r\ncontent-length: 0\r\n\r\n", buf.String())
}

func TestTextResponse(t *testing.T) {
	resp := New()
	defer resp.Release()
	resp.Text("hello").SetStatus(StatusCreated)

	var buf bytes.Buffer
	require.NoError(t, resp.Send(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 201 Created\r\n"))
	assert.Contains(t, out, "content-type: text/plain\r\n")
	assert.Contains(t, out, "content-length: 5\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nhello"))
}

func TestJSONResponse(t *testing.T) {
	resp := New()
	defer resp.Release()
	require.NoError(t, resp.JSON(map[string]int{"count": 3}))

	assert.Equal(t, "application/json", resp.Headers.Get("content-type"))
	assert.Equal(t, `{"count":3}`, string(resp.BodyBytes()))
}

func TestJSONResponseMarshalError(t *testing.T) {
	resp := New()
	defer resp.Release()
	err := resp.JSON(func() {})
	assert.Error(t, err)
}

func TestHeaderOrderPreserved(t *testing.T) {
	resp := New()
	defer resp.Release()
	resp.SetHeader("x-first", "1")
	resp.SetHeader("x-second", "2")
	resp.SetHeader("x-third", "3")

	var buf bytes.Buffer
	require.NoError(t, resp.Send(&buf))

	out := buf.String()
	assert.Less(t, strings.Index(out, "x-first"), strings.Index(out, "x-second"))
	assert.Less(t, strings.Index(out, "x-second"), strings.Index(out, "x-third"))
}

func TestStreamingBody(t *testing.T) {
	resp := New()
	defer resp.Release()
	resp.SetHeader("content-length", "9")
	resp.SetBodyStream(strings.NewReader("streaming"))

	var buf bytes.Buffer
	require.NoError(t, resp.Send(&buf))
	assert.True(t, strings.HasSuffix(buf.String(), "\r\n\r\nstreaming"))
}

func TestDropBody(t *testing.T) {
	resp := New()
	defer resp.Release()
	resp.Text("payload").DropBody()

	var buf bytes.Buffer
	require.NoError(t, resp.Send(&buf))
	assert.Contains(t, buf.String(), "content-length: 0\r\n")
	assert.True(t, strings.HasSuffix(buf.String(), "\r\n\r\n"))
}

func TestWriteAppends(t *testing.T) {
	resp := New()
	defer resp.Release()
	resp.WriteString("one ")
	n, err := resp.Write([]byte("two"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "one two", string(resp.BodyBytes()))
}
