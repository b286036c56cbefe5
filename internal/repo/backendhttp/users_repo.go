package backendhttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
)

const (
	signInPath          = "/users/signIn"
	pendingUsersPath    = "/users/getAllPendingUsers"
	updateStatusPath    = "/users/updateStatus"
	LoginSuccessMessage = "Login successful"
)

type Credentials struct {
	Email      string
	Password   string
	NationalID string
}

type messageDTO struct {
	Message string `json:"message"`
}

type signInRequestDTO struct {
	UserEmail    string `json:"userEmail"`
	UserPassword string `json:"userPassword"`
	NationalID   string `json:"nationalID"`
}

type updateStatusRequestDTO struct {
	UserID            string `json:"userId"`
	NewStatus         string `json:"newStatus"`
	ReasonOfRejection string `json:"reasonOfRejection"`
}

type pendingUsersResponseDTO struct {
	PendingUsers []userDTO `json:"pendingUsers"`
}

type identityDTO struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Image        string `json:"image"`
	NationalID   string `json:"nationalID"`
	Status       string `json:"status"`
	Gender       string `json:"gender"`
	Birthdate    string `json:"birthdate"`
	ManuFactorID string `json:"manuFactorId"`
}

type userDTO struct {
	ID             string      `json:"_id"`
	BusinessUserID int64       `json:"businessUserId"`
	UserNationalID identityDTO `json:"userNationalID"`
	UserEmail      string      `json:"userEmail"`
	CreatedAt      string      `json:"createdAt"`
}

func (d userDTO) toModel() model.User {
	return model.User{
		ID:             d.ID,
		BusinessUserID: d.BusinessUserID,
		Email:          d.UserEmail,
		CreatedAt:      d.CreatedAt,
		Identity: model.Identity{
			FirstName:        d.UserNationalID.FirstName,
			LastName:         d.UserNationalID.LastName,
			NationalIDNumber: d.UserNationalID.NationalID,
			Gender:           d.UserNationalID.Gender,
			Birthdate:        d.UserNationalID.Birthdate,
			IssuerID:         d.UserNationalID.ManuFactorID,
			Status:           d.UserNationalID.Status,
			ImageBase64:      d.UserNationalID.Image,
		},
	}
}

type UsersRepo struct {
	client *Client
}

func NewUsersRepo(client *Client) *UsersRepo {
	return &UsersRepo{client: client}
}

// SignIn returns the backend message exactly as sent. Non-2xx responses come
// back as *RequestError with the backend message lifted into Message.
func (r *UsersRepo) SignIn(ctx context.Context, creds Credentials) (string, error) {
	request := signInRequestDTO{
		UserEmail:    creds.Email,
		UserPassword: creds.Password,
		NationalID:   creds.NationalID,
	}

	response := messageDTO{}
	if err := r.client.DoJSON(ctx, "sign_in", http.MethodPost, signInPath, request, &response); err != nil {
		return "", err
	}
	return response.Message, nil
}

func (r *UsersRepo) ListPendingUsers(ctx context.Context) ([]model.User, error) {
	response := pendingUsersResponseDTO{}
	if err := r.client.DoJSON(ctx, "list_pending_users", http.MethodGet, pendingUsersPath, nil, &response); err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(response.PendingUsers))
	for _, item := range response.PendingUsers {
		users = append(users, item.toModel())
	}
	return users, nil
}

// UpdateStatus sends reason as-is, including when it is empty.
func (r *UsersRepo) UpdateStatus(ctx context.Context, userID string, decision enums.Decision, reason string) (string, error) {
	request := updateStatusRequestDTO{
		UserID:            userID,
		NewStatus:         decision.Status(),
		ReasonOfRejection: reason,
	}

	response := messageDTO{}
	if err := r.client.DoJSON(ctx, "update_status", http.MethodPut, updateStatusPath, request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message), nil
}
