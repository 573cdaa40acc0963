// Package platform holds the types the bridge core shares with the
// platform connector: live client/channel records and the Resolver the
// delivery layer uses to re-check that a reply still has somewhere to go.
package platform

// Client is a connected user as the platform currently sees it. ID is the
// platform's volatile connection ID (the send target); UID is the stable
// identity the bridge keys on.
type Client struct {
	ID        string
	UID       string
	Nickname  string
	ChannelID string
}

// Channel is a channel as the platform currently sees it.
type Channel struct {
	ID   string
	Name string
}

// Resolver answers "does this recipient still exist" at delivery time.
// The connector implements it over its live roster; tests use fakes.
type Resolver interface {
	// ClientByUID finds a connected client by stable identity.
	ClientByUID(uid string) (Client, bool)
	// ChannelByID finds a channel by platform ID.
	ChannelByID(id string) (Channel, bool)
}
