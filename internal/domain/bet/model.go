package bet

// Room is a named wager tier with a fixed stake.
type Room string

const (
	RoomChotu  Room = "Chotu"
	RoomRocket Room = "Rocket"
)

// DefaultStakes mirrors the two lobbies the bot launched with. Deployments
// can override the set through configuration.
func DefaultStakes() map[Room]int {
	return map[Room]int{
		RoomChotu:  500,
		RoomRocket: 2500,
	}
}

// Pending is a wager waiting for administrator verification. It exists only
// between the request and the verification; a new request for the same
// user/match replaces it.
type Pending struct {
	Room   Room `json:"room"`
	Amount int  `json:"amount"`
}

// VerificationRequest is the correlation payload sent to administrators when
// a user asks for a wager to be verified.
type VerificationRequest struct {
	UserID    string
	Username  string
	MatchName string
	Room      Room
	Amount    int
}
