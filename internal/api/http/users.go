package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
)

type UsersHandler struct {
	UserService  *service.UserService
	ItemsPerPage int
}

// HandleRegister creates a user.
//
//	@Summary		Register a user
//	@Description	Creates an active, non-superuser account.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		apisdk.UserCreate		true	"New user"
//	@Success		201		{object}	apisdk.UserResponse
//	@Failure		400		{object}	apisdk.ErrorResponse	"Validation error"
//	@Failure		409		{object}	apisdk.ErrorResponse	"Email or username taken"
//	@Failure		429		{object}	apisdk.ErrorResponse	"Rate limited"
//	@Router			/api/v1/users [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req apisdk.UserCreate
	if !decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.UserService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, 0)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleMe returns the caller.
//
//	@Summary		Current user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	apisdk.UserResponse
//	@Failure		400	{object}	apisdk.ErrorResponse	"Inactive user"
//	@Failure		401	{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r.Context())
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleList pages through users.
//
//	@Summary		List users
//	@Description	Superuser only. Users are ordered by id.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page		query		int		false	"Page number (from 1)"	default(1)
//	@Param			per_page	query		int		false	"Items per page"		default(20)
//	@Param			active_only	query		bool	false	"Only active users"		default(false)
//	@Success		200			{object}	apisdk.UserList
//	@Failure		400			{object}	apisdk.ErrorResponse	"Bad pagination"
//	@Failure		401			{object}	apisdk.ErrorResponse
//	@Failure		403			{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := queryInt(w, q.Get("page"), "page", 1)
	if !ok {
		return
	}
	perPage, ok := queryInt(w, q.Get("per_page"), "per_page", h.ItemsPerPage)
	if !ok {
		return
	}
	activeOnly := false
	if v := q.Get("active_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "active_only must be a boolean")
			return
		}
		activeOnly = b
	}

	res, err := h.UserService.List(r.Context(), page, perPage, activeOnly)
	if err != nil {
		writeServiceError(w, r, err, 0)
		return
	}

	out := apisdk.UserList{
		Users:   make([]apisdk.UserResponse, 0, len(res.Users)),
		Total:   res.Total,
		Page:    res.Page,
		PerPage: res.PerPage,
		Pages:   res.Pages(),
	}
	for _, u := range res.Users {
		out.Users = append(out.Users, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one user.
//
//	@Summary		Get a user
//	@Description	Allowed for the user themselves or a superuser.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"User id"
//	@Success		200	{object}	apisdk.UserResponse
//	@Failure		401	{object}	apisdk.ErrorResponse
//	@Failure		403	{object}	apisdk.ErrorResponse
//	@Failure		404	{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor, _ := currentUser(r.Context())

	if err := service.RequireSelfOrSuperuser(actor, id); err != nil {
		writeServiceError(w, r, err, id)
		return
	}

	u, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, id)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleUpdate applies a partial update.
//
//	@Summary		Update a user
//	@Description	Allowed for the user themselves or a superuser. Only a superuser may change is_active.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"User id"
//	@Param			body	body		apisdk.UserUpdate	true	"Fields to change"
//	@Success		200		{object}	apisdk.UserResponse
//	@Failure		400		{object}	apisdk.ErrorResponse
//	@Failure		401		{object}	apisdk.ErrorResponse
//	@Failure		403		{object}	apisdk.ErrorResponse
//	@Failure		404		{object}	apisdk.ErrorResponse
//	@Failure		409		{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req apisdk.UserUpdate
	if !decodeAndValidate(w, r, &req) {
		return
	}

	actor, _ := currentUser(r.Context())
	u, err := h.UserService.Update(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, id)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleUpdatePassword changes the caller's password.
//
//	@Summary		Change password
//	@Description	Only for the user themselves. Revokes all of the user's refresh tokens.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"User id"
//	@Param			body	body		apisdk.UserPasswordUpdate	true	"Current and new password"
//	@Success		200		{object}	apisdk.UserResponse
//	@Failure		400		{object}	apisdk.ErrorResponse	"Validation error or wrong current password"
//	@Failure		401		{object}	apisdk.ErrorResponse
//	@Failure		403		{object}	apisdk.ErrorResponse
//	@Failure		404		{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users/{id}/password [put].
func (h *UsersHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req apisdk.UserPasswordUpdate
	if !decodeAndValidate(w, r, &req) {
		return
	}

	actor, _ := currentUser(r.Context())
	u, err := h.UserService.UpdatePassword(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, id)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleDelete removes a user.
//
//	@Summary		Delete a user
//	@Description	Superuser only. Returns the deleted user.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"User id"
//	@Success		200	{object}	apisdk.UserResponse
//	@Failure		401	{object}	apisdk.ErrorResponse
//	@Failure		403	{object}	apisdk.ErrorResponse
//	@Failure		404	{object}	apisdk.ErrorResponse
//	@Router			/api/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := h.UserService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, id)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "user id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func toUserResponse(u domain.User) apisdk.UserResponse {
	return apisdk.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FullName:    u.FullName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
