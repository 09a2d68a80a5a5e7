package message

import "time"

// SenderKind discriminates the two legal sender variants. There is never a
// third kind; Validate rejects anything else before it can be persisted.
type SenderKind string

const (
	SenderHuman SenderKind = "human"
	SenderAI    SenderKind = "ai"
)

// AISenderID is the fixed sentinel identity for AI-authored messages.
const AISenderID = "ai"

// AISenderContact is the display label carried by the AI sender.
const AISenderContact = "AI"

// Sender is a tagged variant over {human, AI}. Human carries an identity
// reference and display contact; AI carries the fixed sentinel identity.
type Sender struct {
	Kind    SenderKind `json:"-"`
	ID      string     `json:"id"`
	Contact string     `json:"contact"`
}

// HumanSender builds a human sender descriptor.
func HumanSender(id, contact string) Sender {
	return Sender{Kind: SenderHuman, ID: id, Contact: contact}
}

// AISender returns the sentinel AI sender.
func AISender() Sender {
	return Sender{Kind: SenderAI, ID: AISenderID, Contact: AISenderContact}
}

// Validate rejects senders outside the two legal variants.
func (s Sender) Validate() error {
	switch s.Kind {
	case SenderHuman:
		if s.ID == "" || s.ID == AISenderID {
			return ErrInvalidSender
		}
		return nil
	case SenderAI:
		if s.ID != AISenderID {
			return ErrInvalidSender
		}
		return nil
	default:
		return ErrInvalidSender
	}
}

// Message is one immutable transcript entry. Body is a UTF-8 text payload;
// when the sender is AI it is a serialized text-bearing record decoded by
// viewers (see the ai package codec).
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"-"`
	Sender    Sender    `json:"sender"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
