package coach

import (
	"encoding/json"
	"time"
)

// Envelope types pushed over the feed.
const (
	TypeGame = "GAME" // another player's state update
	TypeAI   = "AI"   // a coach reply
)

// Instruction is a typed coaching line sent to the relay.
type Instruction struct {
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// Reply is the relay's answer to an Instruction.
type Reply struct {
	State string `json:"state"`
}

// PlayerData is the state a player publishes to the feed.
type PlayerData struct {
	X      float64 `json:"X"`
	Y      float64 `json:"Y"`
	Prompt string  `json:"Prompt"`
}

// PlayerUpdate is the JSON frame a player writes on its feed connection. The
// first frame registers the player's name.
type PlayerUpdate struct {
	Name       string     `json:"Name"`
	PlayerData PlayerData `json:"PlayerData"`
}

// Envelope wraps every frame the relay pushes to a player.
type Envelope struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Serialized encodes the envelope. Marshalling two strings cannot fail.
func (e Envelope) Serialized() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Message is one line delivered to the frame loop from a background goroutine.
type Message struct {
	From string
	Text string
	Err  error
	At   time.Time
}
