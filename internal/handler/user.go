package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/auth"
	"github.com/sakif/joinagame/internal/service"
)

// TokenHeader carries the player token on POST /api/users responses for
// clients that don't keep cookies.
const TokenHeader = "X-Player-Token"

// UserHandler serves the /api/users routes.
type UserHandler struct {
	users         *service.UserService
	tokens        *auth.TokenService // nil when player tokens are disabled
	secureCookies bool
	logger        *slog.Logger
}

func NewUserHandler(
	users *service.UserService,
	tokens *auth.TokenService,
	secureCookies bool,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		users:         users,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// userBody is a user payload split into the well-known fields and the rest.
//
// Clients send flat profile objects ({"name": "Ana", "bio": "..."}); keys
// that aren't name, phone or skillLevel are kept as profile entries rather
// than dropped. An explicit "profile" object is merged in as well.
type userBody struct {
	name       *string
	phone      *string
	skillLevel *string
	profile    map[string]string
}

// reservedUserKeys are server-managed and ignored when sent by clients.
var reservedUserKeys = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

func parseUserBody(raw map[string]json.RawMessage) (userBody, error) {
	var body userBody

	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("%s must be a string", key))
		}
		return &s, nil
	}

	var err error
	if body.name, err = str("name"); err != nil {
		return body, err
	}
	if body.phone, err = str("phone"); err != nil {
		return body, err
	}
	if body.skillLevel, err = str("skillLevel"); err != nil {
		return body, err
	}

	profile := map[string]string{}
	if v, ok := raw["profile"]; ok {
		if err := json.Unmarshal(v, &profile); err != nil {
			return body, apperror.ValidationFailed("profile", "profile must be an object of strings")
		}
	}
	for key, v := range raw {
		switch key {
		case "name", "phone", "skillLevel", "profile":
			continue
		}
		if reservedUserKeys[key] {
			continue
		}
		profile[key] = profileValue(v)
	}
	if len(profile) > 0 {
		body.profile = profile
	}

	return body, nil
}

// profileValue flattens a JSON value to a string: strings lose their quotes,
// everything else keeps its JSON text.
func profileValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

func (h *UserHandler) decodeUser(w http.ResponseWriter, r *http.Request) (userBody, bool) {
	var raw map[string]json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return userBody{}, false
	}
	body, err := parseUserBody(raw)
	if err != nil {
		writeError(w, err)
		return userBody{}, false
	}
	return body, true
}

// HandleList handles GET /api/users.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGetByID handles GET /api/users/{userId}.
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate handles POST /api/users. With player tokens enabled the new
// user's token is set as an HttpOnly cookie and echoed in X-Player-Token.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeUser(w, r)
	if !ok {
		return
	}

	in := service.CreateUserInput{Profile: body.profile}
	if body.name != nil {
		in.Name = *body.name
	}
	if body.phone != nil {
		in.Phone = *body.phone
	}
	if body.skillLevel != nil {
		in.SkillLevel = *body.skillLevel
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.tokens != nil {
		token, err := h.tokens.Generate(user.ID)
		if err != nil {
			// The user exists; they can still play while tokens are optional
			// on the client side, so don't fail the request.
			h.logger.Error("failed to issue player token",
				slog.String("userId", user.ID),
				slog.String("error", err.Error()),
			)
		} else {
			auth.SetTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
			w.Header().Set(TokenHeader, token)
		}
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleUpdate handles PUT /api/users/{userId} as a partial update.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "userId"), service.UpdateUserInput{
		Name:       body.name,
		Phone:      body.phone,
		SkillLevel: body.skillLevel,
		Profile:    body.profile,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
