package memory

import (
	"fmt"
	"slices"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

// Store はルームごとの解決履歴をメモリ上に保持する。ロックは持たず、ConcurrentStore がラップして使う。
type Store struct {
	rooms map[string][]domain.RoundResolution
}

// NewStore は空のストアを生成する。
func NewStore() *Store {
	return &Store{rooms: make(map[string][]domain.RoundResolution)}
}

func (s *Store) append(room string, res domain.RoundResolution) error {
	history := s.rooms[room]
	if want := len(history) + 1; res.Round != want {
		return fmt.Errorf("%w: room %s expects round %d, got %d", state.ErrRoundOutOfOrder, room, want, res.Round)
	}
	s.rooms[room] = append(history, res)
	return nil
}

// history は履歴スライスのコピーを返す。要素内のマップは共有されるので読み取り専用として扱う。
func (s *Store) history(room string) []domain.RoundResolution {
	return slices.Clone(s.rooms[room])
}
