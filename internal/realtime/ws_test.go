package realtime

import (
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func TestAcceptKey(t *testing.T) {
	// пример из RFC 6455
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", AcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

// clientFrame собирает маскированный кадр, как это делает браузер.
func clientFrame(opcode byte, payload []byte) []byte {
	mask := [4]byte{1, 2, 3, 4}
	out := []byte{0x80 | opcode}
	switch {
	case len(payload) < 126:
		out = append(out, 0x80|byte(len(payload)))
	default:
		out = append(out, 0x80|126)
		out = binary.BigEndian.AppendUint16(out, uint16(len(payload)))
	}
	out = append(out, mask[:]...)
	for i, b := range payload {
		out = append(out, b^mask[i%4])
	}
	return out
}

func readServerFrame(t *testing.T, r *bufio.Reader) (byte, []byte) {
	t.Helper()
	var h [2]byte
	_, err := r.Read(h[:1])
	require.NoError(t, err)
	_, err = r.Read(h[1:])
	require.NoError(t, err)
	n := int(h[1] & 0x7F)
	buf := make([]byte, n)
	for read := 0; read < n; {
		m, err := r.Read(buf[read:])
		require.NoError(t, err)
		read += m
	}
	return h[0] & 0x0F, buf
}

func TestConn_PingThenText(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := newConn(server, nil)

	got := make(chan []byte, 1)
	go func() {
		p, err := c.ReadText()
		if err == nil {
			got <- p
		}
	}()

	cr := bufio.NewReader(client)
	_, err := client.Write(clientFrame(opPing, []byte("hi")))
	require.NoError(t, err)

	op, payload := readServerFrame(t, cr)
	assert.Equal(t, opPong, op)
	assert.Equal(t, "hi", string(payload))

	_, err = client.Write(clientFrame(opText, []byte(`{"type":"ping"}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(<-got))
}

func TestConn_WriteJSON(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := newConn(server, nil)

	go func() { _ = c.WriteJSON(map[string]string{"type": "hello"}) }()

	op, payload := readServerFrame(t, bufio.NewReader(client))
	assert.Equal(t, opText, op)
	assert.JSONEq(t, `{"type":"hello"}`, string(payload))
}

func TestConn_RejectsOversizedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := newConn(server, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.ReadText()
		errc <- err
	}()

	hdr := []byte{0x80 | opText, 0x80 | 127}
	hdr = binary.BigEndian.AppendUint64(hdr, MaxFrameSize+1)
	_, err := client.Write(hdr)
	require.NoError(t, err)
	assert.ErrorIs(t, <-errc, ErrFrameTooLarge)
}

type statusRecorder struct {
	mu    sync.Mutex
	calls []models.UserStatus
}

func (s *statusRecorder) SetStatus(_ context.Context, _ int64, st models.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, st)
	return nil
}

func TestPresence_FirstAndLastSocket(t *testing.T) {
	rec := &statusRecorder{}
	p := NewPresence(rec)

	p.Join(7)
	p.Join(7)
	assert.Equal(t, 2, p.Online(7))
	p.Leave(7)
	assert.Equal(t, []models.UserStatus{models.UserOnline}, rec.calls)
	p.Leave(7)

	assert.Equal(t, []models.UserStatus{models.UserOnline, models.UserOffline}, rec.calls)
	assert.Equal(t, 0, p.Online(7))
}
