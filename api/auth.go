package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"matrix-api/domain"
)

const (
	defaultKeyCacheTTL    = 15 * time.Minute
	defaultInitDataExpiry = 24 * time.Hour
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

// AuthOptions configures identity resolution.
type AuthOptions struct {
	// BotToken enables validation of Telegram Mini App init data.
	BotToken string
	// InitDataExpiry bounds how old accepted init data may be.
	InitDataExpiry time.Duration

	// JWKS plus Audience/Issuer enable RS256 bearer tokens; SharedSecret
	// enables HS256 bearer tokens instead.
	JWKS         *keyfunc.JWKS
	Audience     string
	Issuer       string
	SharedSecret []byte

	// TestMode skips init data validation and synthesizes the stable
	// development identity when no header is present.
	TestMode bool

	KeyCacheTTL time.Duration
}

// Auth resolves Authorization headers into caller identities. It accepts
// Telegram Mini App init data (`tma` scheme) and JWT bearer tokens.
type Auth struct {
	opts   AuthOptions
	parser *jwt.Parser

	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates an Auth instance.
func NewAuth(opts AuthOptions) *Auth {
	if opts.InitDataExpiry <= 0 {
		opts.InitDataExpiry = defaultInitDataExpiry
	}
	if opts.KeyCacheTTL <= 0 {
		opts.KeyCacheTTL = defaultKeyCacheTTL
	}

	a := &Auth{opts: opts, keyCacheTTL: opts.KeyCacheTTL}
	if len(opts.SharedSecret) > 0 {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	} else {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	}
	return a
}

// IdentityFromAuthHeader resolves the caller identity from the raw header
// value. In test mode a missing header yields the development identity.
func (a *Auth) IdentityFromAuthHeader(h string) (domain.Identity, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		if a.opts.TestMode {
			return domain.DevIdentity(), nil
		}
		return domain.Identity{}, errMissingAuthorization
	}

	scheme, payload, ok := strings.Cut(h, " ")
	payload = strings.TrimSpace(payload)
	if !ok || payload == "" {
		return domain.Identity{}, errBadAuthorization
	}

	switch strings.ToLower(scheme) {
	case "tma", "twa":
		return a.identityFromInitData(payload)
	case "bearer":
		return a.identityFromBearer(payload)
	default:
		return domain.Identity{}, errBadAuthorization
	}
}

func (a *Auth) identityFromInitData(raw string) (domain.Identity, error) {
	if !a.opts.TestMode {
		if a.opts.BotToken == "" {
			return domain.Identity{}, errors.New("telegram auth not configured")
		}
		if err := initdata.Validate(raw, a.opts.BotToken, a.opts.InitDataExpiry); err != nil {
			return domain.Identity{}, fmt.Errorf("invalid init data: %w", err)
		}
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse init data: %w", err)
	}
	if data.User.ID == 0 {
		return domain.Identity{}, errors.New("init data carries no user")
	}
	return IdentityFromInitData(data), nil
}

// IdentityFromInitData derives the caller profile from parsed init data.
// Pure; safe to call before any network I/O.
func IdentityFromInitData(data initdata.InitData) domain.Identity {
	id := strconv.FormatInt(data.User.ID, 10)

	name := strings.TrimSpace(strings.TrimSpace(data.User.FirstName) + " " + strings.TrimSpace(data.User.LastName))
	if name == "" {
		name = "User"
	}

	avatar := data.User.PhotoURL
	if avatar == "" {
		avatar = domain.PlaceholderAvatar(id)
	}

	handle := "tg_" + id
	if data.User.Username != "" {
		handle = "@" + data.User.Username
	}

	return domain.Identity{
		ID:         id,
		Name:       name,
		AvatarURL:  avatar,
		Handle:     handle,
		InviteCode: data.StartParam,
	}
}

func (a *Auth) identityFromBearer(token string) (domain.Identity, error) {
	var parsedToken *jwt.Token
	var err error
	if len(a.opts.SharedSecret) > 0 {
		parsedToken, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.opts.SharedSecret, nil
		})
	} else {
		parsedToken, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			return a.keyForToken(t)
		})
	}
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return domain.Identity{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return domain.Identity{}, errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return domain.Identity{}, errors.New("token used before issued")
	}
	if a.opts.Audience != "" && !claims.VerifyAudience(a.opts.Audience, false) {
		return domain.Identity{}, errors.New("invalid audience")
	}
	if a.opts.Issuer != "" && !claims.VerifyIssuer(a.opts.Issuer, false) {
		return domain.Identity{}, errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.Identity{}, errors.New("missing sub")
	}
	return identityFromClaims(sub, claims), nil
}

func identityFromClaims(sub string, claims jwt.MapClaims) domain.Identity {
	name, _ := claims["name"].(string)
	if name = strings.TrimSpace(name); name == "" {
		name = "User"
	}

	avatar, _ := claims["picture"].(string)
	if avatar == "" {
		avatar = domain.PlaceholderAvatar(sub)
	}

	handle := "tg_" + sub
	if username, _ := claims["preferred_username"].(string); username != "" {
		handle = "@" + username
	} else if email, _ := claims["email"].(string); email != "" {
		handle = email
	}

	return domain.Identity{ID: sub, Name: name, AvatarURL: avatar, Handle: handle}
}

func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.opts.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.opts.JWKS.Keyfunc(token)
	if err != nil {
		return nil, err
	}

	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(a.keyCacheTTL)})
	}
	return key, nil
}
