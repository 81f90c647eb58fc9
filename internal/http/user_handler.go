package http

import (
	"net/http"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type userHandler struct {
	respond *responder
	userSvc service.UserService
}

func newUserHandler(respond *responder, userSvc service.UserService) *userHandler {
	return &userHandler{
		respond: respond,
		userSvc: userSvc,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	result, err := h.userSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  result.User,
	})
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	user, err := h.userSvc.Register(r.Context(), service.RegisterUserParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusCreated, user)
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListUsers(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, users)
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	user, err := h.userSvc.UpdateUser(r.Context(), id, service.UpdateUserParams{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, user)
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	if err := h.userSvc.DeleteUser(r.Context(), id); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusNoContent, nil)
}
