package utils

import (
	"context"
	"errors"

	"cloud.google.com/go/auth/credentials/idtoken"
)

type GoogleAccount struct {
	Email string
	Name  string
}

// GoogleVerifier checks Google ID tokens issued for ClientID.
type GoogleVerifier struct {
	ClientID string
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (GoogleAccount, error) {
	if g == nil || g.ClientID == "" {
		return GoogleAccount{}, errors.New("oauth client id not configured")
	}

	tok, err := idtoken.Validate(ctx, idToken, g.ClientID)
	if err != nil {
		return GoogleAccount{}, err
	}

	email, ok := tok.Claims["email"].(string)
	if !ok || email == "" {
		return GoogleAccount{}, errors.New("invalid email claim in google token")
	}
	if verified, ok := tok.Claims["email_verified"].(bool); ok && !verified {
		return GoogleAccount{}, errors.New("google email is not verified")
	}
	name, _ := tok.Claims["name"].(string)
	return GoogleAccount{Email: email, Name: name}, nil
}
