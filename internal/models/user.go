package models

// User is the public presence entry for an authenticated connection.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Status   string `json:"status"`
	JoinTime int64  `json:"joinTime"`
}

// UserStatusOnline is the only presence status the relay tracks: an entry
// exists exactly while the connection is authenticated.
const UserStatusOnline = "online"
