package domain

import "context"

// Transport は物理的な接続の読み書きを抽象化します。
type Transport interface {
	Read(ctx context.Context) (data []byte, err error)
	Write(ctx context.Context, data []byte) error
	Close(code int32, reason string) error
}

// 正常終了時のクローズコード。
const CloseNormal int32 = 1000
