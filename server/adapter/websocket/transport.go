package adapterwebsocket

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/touka-aoi/inbox-kingdoms/server/domain"
)

// 読み込みサイズの上限と1メッセージあたりの書き込み期限。
const (
	readLimit    = 4 << 10
	writeTimeout = 5 * time.Second
)

type wsTransport struct {
	conn *websocket.Conn
}

func NewTransportFrom(conn *websocket.Conn) domain.Transport {
	conn.SetReadLimit(readLimit)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write は1メッセージごとに writeTimeout で打ち切る。
func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(code int32, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
