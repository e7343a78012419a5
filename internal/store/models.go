package store

type Credential struct {
	Cookie    string `json:"cookie"`
	UserAgent string `json:"userAgent"`
	Connected bool   `json:"connected"`
}

// Complete reports whether both halves of the session are present.
func (c Credential) Complete() bool {
	return c.Cookie != "" && c.UserAgent != ""
}

type Profile struct {
	Name             string `json:"name"`
	Headline         string `json:"headline"`
	ProfilePhoto     string `json:"profilePhoto"`
	PublicIdentifier string `json:"publicIdentifier"`
}

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

type ChatTurn struct {
	Role    string `json:"role"` // "user" or "agent"
	Message string `json:"message"`
}
