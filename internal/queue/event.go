// Package queue defines message payloads exchanged over the message broker.
package queue

// AccountCreatedEvent is published when a new actor registers. It carries
// everything the mailer needs to send the verification link without
// querying the primary database.
type AccountCreatedEvent struct {
    ActorID   uint64 `json:"actor_id"`
    Username  string `json:"username"`
    Email     string `json:"email"`
    VerifyURL string `json:"verify_url"`
    CreatedAt string `json:"created_at"`
}
