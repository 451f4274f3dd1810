/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Seednode/codenames/games/codenames"
)

// playerClaims bind a player's identity and seat to one room. The engine
// still checks them against the stored player on every action.
type playerClaims struct {
	Room string         `json:"room"`
	Name string         `json:"name"`
	Team codenames.Team `json:"team"`
	Role codenames.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity tokens carry only a player id and live in the player cookie, so
// ids cannot be chosen by the client.
const (
	identityAudience = "codenames-identity"
	identityTTL      = 365 * 24 * time.Hour
)

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) (*tokenIssuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}

	return &tokenIssuer{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (t *tokenIssuer) issue(roomID string, p codenames.Player) (string, error) {
	now := t.now()
	claims := playerClaims{
		Room: roomID,
		Name: p.Name,
		Team: p.Team,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign player token: %w", err)
	}
	return signed, nil
}

// verify checks the signature and expiry of raw and that it was issued for
// roomID, returning the player it names.
func (t *tokenIssuer) verify(raw, roomID string) (codenames.Player, error) {
	claims := &playerClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return codenames.Player{}, fmt.Errorf("%w: %w", errUnauthorized, err)
	}

	if claims.Room != roomID || claims.Subject == "" {
		return codenames.Player{}, errUnauthorized
	}

	return codenames.Player{
		ID:   claims.Subject,
		Name: claims.Name,
		Team: claims.Team,
		Role: claims.Role,
	}, nil
}

func (t *tokenIssuer) issueIdentity(playerID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		Audience:  jwt.ClaimStrings{identityAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(identityTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}

// verifyIdentity returns the player id of an identity token issued by t.
// Player tokens are not accepted here.
func (t *tokenIssuer) verifyIdentity(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(identityAudience),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", errUnauthorized
	}
	return claims.Subject, nil
}

// fromRequest reads a bearer token from the Authorization header.
func (t *tokenIssuer) fromRequest(r *http.Request, roomID string) (codenames.Player, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return codenames.Player{}, errUnauthorized
	}

	return t.verify(strings.TrimSpace(raw), roomID)
}
