package project

import (
	"time"

	"github.com/devroom/devroom/internal/domain/user"
)

// Project is the shared workspace unit: membership, chat transcript, file tree.
// Messages and the file tree are owned by their stores; this model carries
// identity and membership only.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"users"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a project with member identities resolved to full user records.
type Detail struct {
	Project
	MemberDetails []user.User `json:"members"`
}
