package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const providerGoogle = "google"

// GoogleCalendar connects users' Google accounts and mirrors bookings into their primary calendar.
type GoogleCalendar struct {
	Config   *oauth2.Config
	Accounts AccountStore
	Location *time.Location
	Timeout  time.Duration
	// Endpoint overrides the Calendar API base URL.
	Endpoint string
	Logger   *slog.Logger
}

// NewGoogleOAuthConfig returns nil when any of the OAuth client settings is missing.
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarScope,
			googleoauth.UserinfoEmailScope,
			googleoauth.UserinfoProfileScope,
		},
		Endpoint: google.Endpoint,
	}
}

func (g *GoogleCalendar) timeout() time.Duration {
	if g.Timeout <= 0 {
		return 10 * time.Second
	}
	return g.Timeout
}

func (g *GoogleCalendar) location() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

// AuthURL returns the consent page URL; state identifies the user on the way back.
func (g *GoogleCalendar) AuthURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Connect exchanges an authorization code and stores the resulting credentials for userID.
func (g *GoogleCalendar) Connect(ctx context.Context, userID, code string) (*CalendarAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		var rejected *oauth2.RetrieveError
		if errors.As(err, &rejected) {
			return nil, newValidationError("code", "failed to exchange authorization code")
		}
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	scope, _ := token.Extra("scope").(string)
	if !strings.Contains(scope, calendar.CalendarScope) {
		return nil, newValidationError("scope", "access to Google Calendar was not granted")
	}

	acc := &CalendarAccount{
		UserID:       userID,
		Provider:     providerGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scope:        scope,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		acc.ExpiresAt = &expiry
	}

	client := g.Config.Client(ctx, token)
	if svc, err := googleoauth.NewService(ctx, option.WithHTTPClient(client)); err == nil {
		if info, err := svc.Userinfo.Get().Context(ctx).Do(); err == nil {
			acc.ProviderEmail = info.Email
		} else if g.Logger != nil {
			g.Logger.Warn("google userinfo lookup failed", "user_id", userID, "error", err)
		}
	}

	if err := g.Accounts.UpsertCalendarAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("store calendar account: %w", err)
	}
	return acc, nil
}

// tokenSource returns a token source for acc, refreshing and persisting an expired token first.
func (g *GoogleCalendar) tokenSource(ctx context.Context, acc *CalendarAccount) (oauth2.TokenSource, error) {
	stored := &oauth2.Token{
		AccessToken:  acc.AccessToken,
		RefreshToken: acc.RefreshToken,
		TokenType:    "Bearer",
	}
	if acc.ExpiresAt != nil {
		stored.Expiry = *acc.ExpiresAt
	}
	if g.Config == nil {
		return oauth2.StaticTokenSource(stored), nil
	}

	fresh, err := g.Config.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh google token: %w", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		acc.AccessToken = fresh.AccessToken
		if fresh.RefreshToken != "" {
			acc.RefreshToken = fresh.RefreshToken
		}
		if !fresh.Expiry.IsZero() {
			expiry := fresh.Expiry
			acc.ExpiresAt = &expiry
		}
		if err := g.Accounts.UpsertCalendarAccount(ctx, acc); err != nil {
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
	}
	return oauth2.StaticTokenSource(fresh), nil
}

// CreateRemoteEvent inserts a one hour event with a Google Meet link into the user's primary
// calendar and returns the event id.
func (g *GoogleCalendar) CreateRemoteEvent(ctx context.Context, user *User, b *Booking) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	acc, err := g.Accounts.GetCalendarAccount(ctx, user.ID)
	if err != nil {
		return "", err
	}
	ts, err := g.tokenSource(ctx, acc)
	if err != nil {
		return "", err
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create calendar service: %w", err)
	}

	loc := g.location()
	start := b.Date.In(loc)
	event := &calendar.Event{
		Summary:     fmt.Sprintf("Call: %s", b.Name),
		Description: b.Observations,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         &calendar.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339), TimeZone: loc.String()},
		Attendees: []*calendar.EventAttendee{
			{Email: b.Email, DisplayName: b.Name},
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             b.ID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := srv.Events.Insert("primary", event).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// GET /api/calendar/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Google == nil || a.Google.Config == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	state, err := a.Tokens.OAuthState(userIDFrom(c))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": a.Google.AuthURL(state)})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Google == nil || a.Google.Config == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	if reason := c.Query("error"); reason != "" {
		a.respondError(c, newValidationError("scope", "Google authorization was denied: "+reason))
		return
	}

	userID, err := a.Tokens.Verify(c.Query("state"), audienceOAuthState)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	acc, err := a.Google.Connect(c.Request.Context(), userID, code)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "calendar connected",
		"provider":       acc.Provider,
		"provider_email": acc.ProviderEmail,
	})
}
