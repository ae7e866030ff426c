package protocol

import "time"

// Redemption is a channel-point reward exchange delivered by the chat
// platform connector.
type Redemption struct {
	User        string    `json:"user"`
	RewardTitle string    `json:"reward_title"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Bits is a bit donation event.
type Bits struct {
	User      string `json:"user"`
	Bits      int    `json:"bits"`
	TotalBits int    `json:"total_bits"`
	Message   string `json:"message"`
}

// Sub covers new subscriptions and resubs; Months is zero for a first sub.
type Sub struct {
	User   string `json:"user"`
	Months int    `json:"months,omitempty"`
}

// SubGift is a single gifted subscription. When it follows a community
// gift batch from the same gifter it must not be announced again.
type SubGift struct {
	Gifter    string `json:"gifter"`
	Recipient string `json:"recipient"`
}

// CommunityGift is a batch of gifted subscriptions announced as one event.
type CommunityGift struct {
	Gifter string `json:"gifter"`
	Count  int    `json:"count"`
}

// PrimeUpgrade marks a prime subscription converted to a paid one.
type PrimeUpgrade struct {
	User string `json:"user"`
}

// GiftUpgrade marks a gifted subscription continued as a paid one.
type GiftUpgrade struct {
	User   string `json:"user"`
	Gifter string `json:"gifter"`
}

// StreamInfo is the periodically refreshed channel state used as reply
// context.
type StreamInfo struct {
	Game        string `json:"game"`
	Title       string `json:"title"`
	Viewers     int    `json:"viewers"`
	Followers   int    `json:"followers"`
	Description string `json:"description,omitempty"`
}

// ChatMessage is an outgoing message for the connector to post.
type ChatMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

const (
	SubjectRedemption    = "chat.event.redemption"
	SubjectBits          = "chat.event.bits"
	SubjectSub           = "chat.event.sub"
	SubjectResub         = "chat.event.resub"
	SubjectSubGift       = "chat.event.subgift"
	SubjectCommunityGift = "chat.event.communitygift"
	SubjectPrimeUpgrade  = "chat.event.primeupgrade"
	SubjectGiftUpgrade   = "chat.event.giftupgrade"
	SubjectStreamInfo    = "chat.streaminfo"
	SubjectSay           = "chat.say"
)
