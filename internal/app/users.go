package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ClaimUsername registers a new user under a normalised username and returns a session token.
func (a *App) ClaimUsername(ctx context.Context, in ClaimInput) (*User, string, error) {
	clean, verr := ValidateClaimRequest(in)
	if verr != nil {
		return nil, "", verr
	}

	u := &User{
		ID:       uuid.NewString(),
		Username: clean.Username,
		Name:     clean.Name,
	}
	// the id is known before insert, so a signing failure leaves nothing stored
	token, err := a.Tokens.Session(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("sign session: %w", err)
	}
	if err := a.Users.InsertUser(ctx, u); err != nil {
		return nil, "", err
	}
	a.logger().Info("username claimed", "user_id", u.ID, "username", u.Username)
	return u, token, nil
}

// PublicProfile is what a visitor of the booking page sees about its owner.
type PublicProfile struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

func (a *App) GetPublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	u, err := a.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{Username: u.Username, Name: u.Name, Bio: u.Bio, AvatarURL: u.AvatarURL}, nil
}
