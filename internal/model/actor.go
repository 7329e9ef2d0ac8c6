package model

import "time"

// Actor represents a local account record as stored in the
// `actors` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID            – primary key identifier of the actor.
//  Username      – unique handle on this instance, case-sensitive.
//  DisplayName   – human-readable name shown on the profile.
//  Description   – free-form profile text.
//  Email         – address used for verification mail.
//  PasswordHash  – bcrypt hashed password.
//  Host          – hostname of the instance that owns the actor.
//  AvatarURL     – relative path of the avatar file.
//  PublicKeyPEM  – PEM-encoded RSA public key, published in the actor document.
//  PrivateKeyPEM – PEM-encoded RSA private key, never leaves the server.
//  IsPrivate     – when true, content is only visible to accepted followers.
//  IsActive      – whether the email address has been verified.
//  IsAdmin       – instance administrator flag.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Actor struct {
	ID            uint64    // actors.id
	Username      string    // actors.username
	DisplayName   string    // actors.display_name
	Description   string    // actors.description
	Email         string    // actors.email
	PasswordHash  string    // actors.password_hash
	Host          string    // actors.host
	AvatarURL     string    // actors.avatar_url
	PublicKeyPEM  string    // actors.public_key_pem
	PrivateKeyPEM string    // actors.private_key_pem
	IsPrivate     bool      // actors.is_private
	IsActive      bool      // actors.is_active
	IsAdmin       bool      // actors.is_admin
	CreatedAt     time.Time // actors.created_at
	UpdatedAt     time.Time // actors.updated_at
}
