// internal/handlers/identity.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/KennyPhan123/spicy-online/internal/auth"
)

const playerTokenCookie = "player_token"

// EnsurePlayerIdentity resolves the requester's stable player id. A valid
// player_token cookie yields the id it carries, so a reconnecting client lands
// back in the same seat. Anything else (no cookie, bad token) mints a fresh id
// and sets a new cookie on the response.
func EnsurePlayerIdentity(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(playerTokenCookie); err == nil {
		if playerID, err := auth.AuthenticatePlayerToken(cookie.Value); err == nil {
			return playerID, nil
		}
		// Invalid or expired token falls through to a fresh identity.
	}

	playerID := uuid.NewString()
	newToken, err := auth.CreatePlayerToken(playerID)
	if err != nil {
		return "", fmt.Errorf("failed to create player token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     playerTokenCookie,
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
	})
	return playerID, nil
}
