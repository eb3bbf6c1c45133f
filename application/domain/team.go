package domain

// 既定の宛先名。宛先数は入力スナップショットで決まり、これらは既定配分と重み付けにのみ使う。
const (
	DestinationGmail   = "gmail"
	DestinationOutlook = "outlook"
	DestinationYahoo   = "yahoo"
)

// FilteringPolicy は宛先が送信チームに対して選ぶフィルタリング強度です。
type FilteringPolicy string

const (
	FilteringPermissive FilteringPolicy = "permissive"
	FilteringModerate   FilteringPolicy = "moderate"
	FilteringStrict     FilteringPolicy = "strict"
	FilteringMaximum    FilteringPolicy = "maximum"
)

// ToolSpamTrapNetwork を所有する宛先はスパムトラップ網が有効になる。
const ToolSpamTrapNetwork = "spam_trap_network"

// SenderTeam は送信チームのポートフォリオ。
type SenderTeam struct {
	Name         string                 `json:"name"`
	TechStack    []string               `json:"techStack"`
	Reputation   map[string]float64     `json:"reputation"`
	Clients      []Client               `json:"clients"`
	ClientStates map[string]ClientState `json:"clientStates"`
}

// ActiveClients は Active 状態のクライアントだけを元の順序で返します。
func (t SenderTeam) ActiveClients() []Client {
	active := make([]Client, 0, len(t.Clients))
	for _, c := range t.Clients {
		if st, ok := t.ClientStates[c.ID]; ok && st.IsActive() {
			active = append(active, c)
		}
	}
	return active
}

// Destination は受信側のメールボックスプロバイダ。
type Destination struct {
	Name              string                     `json:"name"`
	Kingdom           string                     `json:"kingdom"`
	FilteringPolicies map[string]FilteringPolicy `json:"filteringPolicies"`
	OwnedTools        []string                   `json:"ownedTools"`
}

// PolicyFor はチームに対するフィルタリングポリシーを返す。未設定なら permissive。
func (d Destination) PolicyFor(team string) FilteringPolicy {
	if p, ok := d.FilteringPolicies[team]; ok && p != "" {
		return p
	}
	return FilteringPermissive
}

// SpamTrapNetworkActive はスパムトラップ網ツールを所有しているかを返します。
func (d Destination) SpamTrapNetworkActive() bool {
	for _, tool := range d.OwnedTools {
		if tool == ToolSpamTrapNetwork {
			return true
		}
	}
	return false
}

// RoundSnapshot は1ラウンドの解決に必要な入力全体。
type RoundSnapshot struct {
	RoomCode     string        `json:"roomCode"`
	Round        int           `json:"round"`
	Teams        []SenderTeam  `json:"teams"`
	Destinations []Destination `json:"destinations"`
}

// DestinationNames は宛先名をスナップショットの順序で返します。
func (s RoundSnapshot) DestinationNames() []string {
	names := make([]string, 0, len(s.Destinations))
	for _, d := range s.Destinations {
		names = append(names, d.Name)
	}
	return names
}
